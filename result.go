package sqlback

import "time"

// NoResult is the cursor handed back with a failed Query. It is safe
// to use but yields nothing: no rows, zero affected rows, sentinel
// values from every reader. Freeing it is a no-op, so callers that
// unconditionally free the cursor stay correct.
var NoResult Result = noResult{}

type noResult struct{}

func (noResult) Next() Fetch                  { return FetchDone }
func (noResult) NextRow() bool                { return false }
func (noResult) AffectedRows() uint64         { return 0 }
func (noResult) GetString(int) ([]byte, bool) { return nil, false }
func (noResult) GetNumber(int) int64          { return -1 }
func (noResult) GetDate(int) time.Time        { return time.Time{} }
func (noResult) GetBool(int) bool             { return false }
func (noResult) Free()                        {}
