package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// fakeRunner records invocations and serves canned results keyed by the
// executable name.
type fakeRunner struct {
	calls      [][]string
	runErr     map[string]error
	outputs    map[string][]byte
	outputErr  map[string]error
	streamData []byte
	streamErr  error
}

func (f *fakeRunner) record(name string, args []string) {
	f.calls = append(f.calls, append([]string{name}, args...))
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.record(name, args)
	if f.runErr != nil {
		return f.runErr[name]
	}
	return nil
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.record(name, args)
	if f.outputErr != nil {
		if err := f.outputErr[name]; err != nil {
			return nil, err
		}
	}
	if f.outputs != nil {
		return f.outputs[name], nil
	}
	return nil, nil
}

func (f *fakeRunner) Start(ctx context.Context, name string, args ...string) (io.ReadCloser, func() error, error) {
	f.record(name, args)
	wait := func() error { return f.streamErr }
	return io.NopCloser(strings.NewReader(string(f.streamData))), wait, nil
}

// lastCall returns the most recent invocation matching the executable name.
func (f *fakeRunner) lastCall(name string) []string {
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i][0] == name {
			return f.calls[i]
		}
	}
	return nil
}

func (f *fakeRunner) callCount(name string) int {
	n := 0
	for _, c := range f.calls {
		if c[0] == name {
			n++
		}
	}
	return n
}

// probeJSON builds a canned ffprobe response.
func probeJSON(duration float64, hasVideo, hasAudio bool) []byte {
	streams := ""
	if hasVideo {
		streams = `{"codec_type":"video","r_frame_rate":"30/1"}`
	}
	if hasAudio {
		if streams != "" {
			streams += ","
		}
		streams += `{"codec_type":"audio"}`
	}
	return fmt.Appendf(nil, `{"format":{"duration":"%g"},"streams":[%s]}`, duration, streams)
}
