package schema

// Annotation is used to attach arbitrary metadata to the schema objects
// (managed types and attributes) for consumers such as providers, code
// generators and named-graph registries. An Annotation must be serializable
// to JSON, and its Name must be unique per annotation kind.
type Annotation interface {
	// Name defines the name of the annotation to be retrieved by consumers.
	Name() string
}

// Merger wraps the single Merge function allowing annotations of the same
// name to be combined when they are attached more than once to the same
// schema object.
type Merger interface {
	Merge(Annotation) Annotation
}

// CommentAnnotation is a builtin schema annotation for
// documenting managed types.
type CommentAnnotation struct {
	Text string // Comment text.
}

// Name implements the Annotation interface.
func (*CommentAnnotation) Name() string {
	return "Comment"
}

// Comment is a builtin schema annotation for adding a comment to a type.
func Comment(text string) *CommentAnnotation {
	return &CommentAnnotation{Text: text}
}

var _ Annotation = (*CommentAnnotation)(nil)
