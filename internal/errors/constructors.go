package errors

import "strings"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *SiteGraphError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *SiteGraphError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func ValidationFailed(field, reason string) *SiteGraphError {
	return New(CategoryValidation, SeverityFatal, "validation failed").
		WithContext("field", field).
		WithContext("reason", reason)
}

// Content-authoring errors

// CircularDependency reports a reference cycle. The chain lists the in-progress
// URLs in order, ending with the URL whose request closed the cycle.
func CircularDependency(chain []string) *SiteGraphError {
	return New(CategoryCycle, SeverityFatal, "circular document reference: "+strings.Join(chain, " -> ")).
		WithContext("chain", chain)
}

// UnknownRelativeLink reports a relative reference to a document that is not
// registered in the page registry. Broken internal references abort the page.
func UnknownRelativeLink(target, sourceFile string) *SiteGraphError {
	return New(CategoryLink, SeverityFatal, "relative link does not resolve to a registered document").
		WithContext("target", target).
		WithContext("source", sourceFile)
}

// MalformedLinkTarget reports an empty or whitespace-padded link destination.
func MalformedLinkTarget(target, sourceFile string) *SiteGraphError {
	return New(CategoryLink, SeverityFatal, "malformed link target").
		WithContext("target", target).
		WithContext("source", sourceFile)
}

// UnknownFragment reports a cross-document fragment that does not match any
// anchor computed for the target document (strict fragment checking only).
func UnknownFragment(fragment, targetURL, sourceFile string) *SiteGraphError {
	return New(CategoryAnchor, SeverityFatal, "fragment does not match any anchor in target document").
		WithContext("fragment", fragment).
		WithContext("target_url", targetURL).
		WithContext("source", sourceFile)
}

// Build pipeline errors

func ReadFailed(file string, cause error) *SiteGraphError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "document read failed").
		WithContext("file", file)
}

func RenderFailed(url string, cause error) *SiteGraphError {
	return Wrap(cause, CategoryRender, SeverityFatal, "document render failed").
		WithContext("url", url)
}

func BuildFailed(stage string, cause error) *SiteGraphError {
	return Wrap(cause, CategoryRender, SeverityFatal, "build failed").
		WithContext("stage", stage)
}

func ExportFailed(kind string, cause error) *SiteGraphError {
	return Wrap(cause, CategoryExport, SeverityFatal, "export failed").
		WithContext("kind", kind)
}

// Internal errors

func InternalError(message string, cause error) *SiteGraphError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
