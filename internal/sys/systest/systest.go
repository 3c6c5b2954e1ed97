// Package systest provides an in-memory sys.Gateway for tests.
package systest

import (
	"bytes"
	"fmt"
)

// Exited is the panic value Recorder.Terminate unwinds with.
type Exited struct {
	Status int
}

func (e Exited) String() string {
	return fmt.Sprintf("exited with status %d", e.Status)
}

// Call is one recorded gateway request.
type Call struct {
	Op     string
	FD     int
	Data   string
	Status int
}

// Recorder is a sys.Gateway that keeps every write per descriptor and
// unwinds the caller on Terminate so nothing after it executes.
type Recorder struct {
	Calls []Call

	streams map[int]*bytes.Buffer
	fail    map[int]int
	limit   int
}

func NewRecorder() *Recorder {
	return &Recorder{
		streams: make(map[int]*bytes.Buffer),
		fail:    make(map[int]int),
	}
}

// FailWrites makes every write to fd return errno as a negative result.
func (r *Recorder) FailWrites(fd int, errno int) {
	r.fail[fd] = -errno
}

// LimitWrites caps how many bytes a single write accepts. Zero disables.
func (r *Recorder) LimitWrites(n int) {
	r.limit = n
}

func (r *Recorder) Write(fd int, p []byte) int {
	if res, ok := r.fail[fd]; ok {
		r.Calls = append(r.Calls, Call{Op: "write", FD: fd, Status: res})
		return res
	}
	if r.limit > 0 && len(p) > r.limit {
		p = p[:r.limit]
	}
	buf, ok := r.streams[fd]
	if !ok {
		buf = &bytes.Buffer{}
		r.streams[fd] = buf
	}
	buf.Write(p)
	r.Calls = append(r.Calls, Call{Op: "write", FD: fd, Data: string(p), Status: len(p)})
	return len(p)
}

func (r *Recorder) Terminate(status int) {
	r.Calls = append(r.Calls, Call{Op: "terminate", Status: status})
	panic(Exited{Status: status})
}

// Stream returns everything written to fd.
func (r *Recorder) Stream(fd int) string {
	if buf, ok := r.streams[fd]; ok {
		return buf.String()
	}
	return ""
}

// Terminated reports the status of the last terminate request.
func (r *Recorder) Terminated() (int, bool) {
	for i := len(r.Calls) - 1; i >= 0; i-- {
		if r.Calls[i].Op == "terminate" {
			return r.Calls[i].Status, true
		}
	}
	return 0, false
}

// Run calls fn and reports the status if fn unwound through Terminate.
// Any other panic is propagated.
func Run(fn func()) (status int, exited bool) {
	defer func() {
		if rec := recover(); rec != nil {
			e, ok := rec.(Exited)
			if !ok {
				panic(rec)
			}
			status, exited = e.Status, true
		}
	}()
	fn()
	return 0, false
}
