package fx

// BlendMode identifies how a layer composites over those below it.
// The engine records the mode for its callers; compositing itself belongs
// to the presentation layer.
type BlendMode int

const (
	// BlendNormal replaces underlying pixels weighted by opacity.
	BlendNormal BlendMode = iota

	// BlendMultiply darkens by multiplying channel values.
	BlendMultiply

	// BlendScreen lightens by inverse multiplication.
	BlendScreen

	// BlendOverlay combines multiply and screen around mid-gray.
	BlendOverlay
)

// Layer is one image layer in a batch job: a pixel buffer plus the ordered
// operations to apply to it.
type Layer struct {
	// ID identifies the layer; SubmitBatch assigns one when empty.
	ID string

	// Buffer holds the layer's source pixels. The engine never mutates
	// it; results are produced in fresh buffers.
	Buffer *Buffer

	// Operations is the ordered list of requested operations. The batch
	// optimizer may merge, reorder, and group them before execution.
	Operations []Operation

	// Blend and Opacity describe how the caller intends to composite
	// the result.
	Blend   BlendMode
	Opacity float32
}

// Job is a single unit of batch work: every layer is processed and the
// job resolves with one result buffer per layer, in layer order.
type Job struct {
	// ID identifies the job; SubmitBatch assigns one when empty.
	ID string

	// Layers to process.
	Layers []Layer

	// OutputWidth and OutputHeight document the intended composite size.
	OutputWidth  int
	OutputHeight int

	// OnProgress, when set, is called after each layer completes with
	// the number of finished layers and the total.
	OnProgress func(done, total int)

	// OnLayer, when set, is called with each layer's result as it
	// completes. err is non-nil when the layer's operation chain failed
	// and result fell back to the original buffer.
	OnLayer func(index int, result *Buffer, err error)
}
