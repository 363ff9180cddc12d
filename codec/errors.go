/*
This is free and unencumbered software released into the public domain.

Anyone is free to copy, modify, publish, use, compile, sell, or
distribute this software, either in source code form or as a compiled
binary, for any purpose, commercial or non-commercial, and by any
means.

In jurisdictions that recognize copyright laws, the author or authors
of this software dedicate any and all copyright interest in the
software to the public domain. We make this dedication for the benefit
of the public at large and to the detriment of our heirs and
successors. We intend this dedication to be an overt act of
relinquishment in perpetuity of all present and future rights to this
software under copyright law.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF
MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.
IN NO EVENT SHALL THE AUTHORS BE LIABLE FOR ANY CLAIM, DAMAGES OR
OTHER LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE,
ARISING FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
OTHER DEALINGS IN THE SOFTWARE.

For more information, please refer to <http://unlicense.org/>
*/

package codec

import "fmt"

// SourceNotFoundError is returned by Open when the dataset cannot be opened.
type SourceNotFoundError struct {
	Path string
	Err  error
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source not found: %s: %v", e.Path, e.Err)
}
func (e *SourceNotFoundError) Unwrap() error { return e.Err }

// MalformedRecordError is returned by Next when the decoder gives up.
// Index is the number of records successfully read before the failure.
type MalformedRecordError struct {
	Path  string
	Index int64
	Err   error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record in %s after record #%d: %v", e.Path, e.Index, e.Err)
}
func (e *MalformedRecordError) Unwrap() error { return e.Err }

// DestinationWriteError covers every failure of the write side: create,
// write, sync, close and the final rename.
type DestinationWriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *DestinationWriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Op, e.Err)
}
func (e *DestinationWriteError) Unwrap() error { return e.Err }
