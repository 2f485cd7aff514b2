package engine

import "context"

// Ptr is an address in the runtime's linear memory.
type Ptr uint32

// Null is the zero pointer. Allocations never return it.
const Null Ptr = 0

// Runtime is the ABI of an embedded interpreter instance.
//
// Implementations are not required to be safe for concurrent use; the
// Bridge serializes every call.
type Runtime interface {
	// Initialize prepares the interpreter. It is called exactly once.
	Initialize(ctx context.Context) error

	// Allocate reserves size bytes of linear memory.
	Allocate(ctx context.Context, size uint32) (Ptr, error)

	// Free releases an allocation.
	Free(ctx context.Context, ptr Ptr) error

	// Write copies data into linear memory at ptr.
	Write(ptr Ptr, data []byte) error

	// ReadString returns the NUL-terminated string at ptr without the
	// terminator. The slice may alias linear memory and is only valid until
	// the next call into the runtime.
	ReadString(ptr Ptr) ([]byte, error)

	// SetData hands the interpreter length bytes at ptr as the data source.
	// The interpreter keeps its own copy.
	SetData(ctx context.Context, ptr Ptr, length uint32) error

	// ExecutePatternLanguageCode runs the NUL-terminated program at ptr.
	ExecutePatternLanguageCode(ctx context.Context, ptr Ptr) error

	// ConsoleResult returns a pointer to the console output of the last run.
	ConsoleResult(ctx context.Context) (Ptr, error)

	// UIConfig returns a pointer to the UI descriptor of the last run.
	UIConfig(ctx context.Context) (Ptr, error)

	// Close releases the runtime.
	Close(ctx context.Context) error
}
