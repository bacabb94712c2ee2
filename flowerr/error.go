package flowerr

import "fmt"

// ArgumentError - Custom error to inform that a caller supplied argument was rejected
type ArgumentError struct {
	msg string
}

// NewArgumentError - Returns an ArgumentError with a formatted message
func NewArgumentError(format string, args ...any) ArgumentError {
	return ArgumentError{msg: fmt.Sprintf(format, args...)}
}

// Error - Used to notify that an argument was rejected
func (A ArgumentError) Error() string {
	if A.msg == "" {
		return "argument error"
	}
	return A.msg
}

// Is - Matches any ArgumentError regardless of message
func (A ArgumentError) Is(target error) bool {
	_, ok := target.(ArgumentError)
	return ok
}

// InternalError - Custom error to inform that the table bookkeeping is corrupted.
// An engine that returned an InternalError should not be used any further.
type InternalError struct {
	msg string
}

// NewInternalError - Returns an InternalError with a formatted message
func NewInternalError(format string, args ...any) InternalError {
	return InternalError{msg: fmt.Sprintf(format, args...)}
}

// Error - Used to notify that bookkeeping is corrupted
func (I InternalError) Error() string {
	if I.msg == "" {
		return "internal error"
	}
	return I.msg
}

// Is - Matches any InternalError regardless of message
func (I InternalError) Is(target error) bool {
	_, ok := target.(InternalError)
	return ok
}

// OutOfMemory - Custom error to inform that no overflow bucket is left in the free list
type OutOfMemory struct {
	msg string
}

// NewOutOfMemory - Returns an OutOfMemory with a formatted message
func NewOutOfMemory(format string, args ...any) OutOfMemory {
	return OutOfMemory{msg: fmt.Sprintf(format, args...)}
}

// Error - Used to notify that the free list is exhausted
func (O OutOfMemory) Error() string {
	if O.msg == "" {
		return "out of overflow buckets"
	}
	return O.msg
}

// Is - Matches any OutOfMemory regardless of message
func (O OutOfMemory) Is(target error) bool {
	_, ok := target.(OutOfMemory)
	return ok
}

// UnsupportedFeature - Custom error to inform that a requested capability is not available,
// either because it is disabled in the configuration or because the hardware was not found
type UnsupportedFeature struct {
	msg string
}

// NewUnsupportedFeature - Returns an UnsupportedFeature with a formatted message
func NewUnsupportedFeature(format string, args ...any) UnsupportedFeature {
	return UnsupportedFeature{msg: fmt.Sprintf(format, args...)}
}

// Error - Used to notify that a feature is not supported
func (U UnsupportedFeature) Error() string {
	if U.msg == "" {
		return "unsupported feature"
	}
	return U.msg
}

// Is - Matches any UnsupportedFeature regardless of message
func (U UnsupportedFeature) Is(target error) bool {
	_, ok := target.(UnsupportedFeature)
	return ok
}

// IllegalInState - Custom error to inform that an operation was called out of order
type IllegalInState struct {
	msg string
}

// NewIllegalInState - Returns an IllegalInState with a formatted message
func NewIllegalInState(format string, args ...any) IllegalInState {
	return IllegalInState{msg: fmt.Sprintf(format, args...)}
}

// Error - Used to notify a call order violation
func (I IllegalInState) Error() string {
	if I.msg == "" {
		return "illegal in state"
	}
	return I.msg
}

// Is - Matches any IllegalInState regardless of message
func (I IllegalInState) Is(target error) bool {
	_, ok := target.(IllegalInState)
	return ok
}

// RecordRemoveBusy - Custom error reserved for a removal that overlaps another removal.
// Nothing in this module returns it since the engine is driven by a single caller.
type RecordRemoveBusy struct {
	msg string
}

// Error - Used to notify that a removal is already in progress
func (R RecordRemoveBusy) Error() string {
	if R.msg == "" {
		return "record remove busy"
	}
	return R.msg
}

// Is - Matches any RecordRemoveBusy regardless of message
func (R RecordRemoveBusy) Is(target error) bool {
	_, ok := target.(RecordRemoveBusy)
	return ok
}
