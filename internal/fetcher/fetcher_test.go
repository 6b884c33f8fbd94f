package fetcher

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grnops/po-reporter/internal/bip"
)

// fakeService scripts the remote service for poll-loop tests.
type fakeService struct {
	submitID  string
	submitErr error

	// statuses are returned in order; the last entry repeats once exhausted.
	statuses    []bip.JobState
	statusErrs  []error
	statusCalls int

	instances    []string
	instancesErr error

	outputs    []bip.Output
	outputsErr error

	doc    *bip.Document
	docErr error
}

func (f *fakeService) SubmitJob(ctx context.Context, req bip.ReportRequest) (string, error) {
	return f.submitID, f.submitErr
}

func (f *fakeService) JobStatus(ctx context.Context, jobID string) (bip.JobState, error) {
	i := f.statusCalls
	f.statusCalls++
	if i < len(f.statusErrs) && f.statusErrs[i] != nil {
		return bip.StateUnknown, f.statusErrs[i]
	}
	if len(f.statuses) == 0 {
		return bip.StateRunning, nil
	}
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	return f.statuses[i], nil
}

func (f *fakeService) JobInstances(ctx context.Context, jobID string) ([]string, error) {
	return f.instances, f.instancesErr
}

func (f *fakeService) JobOutputs(ctx context.Context, instanceID string) ([]bip.Output, error) {
	return f.outputs, f.outputsErr
}

func (f *fakeService) FetchDocument(ctx context.Context, outputID string) (*bip.Document, error) {
	return f.doc, f.docErr
}

func newTestFetcher(svc bip.Service, interval, timeout time.Duration) *Fetcher {
	return New(svc, interval, timeout, nil)
}

func TestSubmit(t *testing.T) {
	t.Run("returns the job id", func(t *testing.T) {
		f := newTestFetcher(&fakeService{submitID: "2995978"}, time.Millisecond, time.Second)
		jobID, err := f.Submit(context.Background(), bip.ReportRequest{})
		require.NoError(t, err)
		assert.Equal(t, "2995978", jobID)
	})

	t.Run("remote error becomes SubmissionError", func(t *testing.T) {
		f := newTestFetcher(&fakeService{submitErr: errors.New("boom")}, time.Millisecond, time.Second)
		_, err := f.Submit(context.Background(), bip.ReportRequest{})
		var subErr *SubmissionError
		require.ErrorAs(t, err, &subErr)
	})

	t.Run("blank job id becomes SubmissionError", func(t *testing.T) {
		f := newTestFetcher(&fakeService{submitID: "  "}, time.Millisecond, time.Second)
		_, err := f.Submit(context.Background(), bip.ReportRequest{})
		var subErr *SubmissionError
		require.ErrorAs(t, err, &subErr)
	})
}

func TestAwaitCompletion(t *testing.T) {
	t.Run("polls until success then resolves instance", func(t *testing.T) {
		svc := &fakeService{
			statuses:  []bip.JobState{bip.StateRunning, bip.StateRunning, bip.StateSucceeded},
			instances: []string{"3000001", "3000002"},
		}
		f := newTestFetcher(svc, time.Millisecond, time.Second)

		res, err := f.AwaitCompletion(context.Background(), "100")
		require.NoError(t, err)
		assert.Equal(t, "3000001", res.InstanceID, "first instance as reported wins")
		assert.False(t, res.Fallback)
		assert.Equal(t, 3, svc.statusCalls, "two waits, three polls")
	})

	t.Run("warnings still count as success", func(t *testing.T) {
		svc := &fakeService{
			statuses:  []bip.JobState{bip.StateSucceededWithWarnings},
			instances: []string{"42"},
		}
		f := newTestFetcher(svc, time.Millisecond, time.Second)

		res, err := f.AwaitCompletion(context.Background(), "41")
		require.NoError(t, err)
		assert.Equal(t, "42", res.InstanceID)
	})

	t.Run("terminal failure becomes JobFailedError", func(t *testing.T) {
		svc := &fakeService{statuses: []bip.JobState{bip.StateRunning, bip.StateCancelled}}
		f := newTestFetcher(svc, time.Millisecond, time.Second)

		_, err := f.AwaitCompletion(context.Background(), "100")
		var failed *JobFailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, bip.StateCancelled, failed.Status)
		assert.Equal(t, "100", failed.JobID)
	})

	t.Run("transient status errors are retried", func(t *testing.T) {
		svc := &fakeService{
			statusErrs: []error{errors.New("gateway hiccup"), errors.New("again")},
			statuses:   []bip.JobState{bip.StateRunning, bip.StateRunning, bip.StateSucceeded},
			instances:  []string{"7"},
		}
		f := newTestFetcher(svc, time.Millisecond, time.Second)

		res, err := f.AwaitCompletion(context.Background(), "6")
		require.NoError(t, err)
		assert.Equal(t, "7", res.InstanceID)
		assert.Equal(t, 3, svc.statusCalls)
	})

	t.Run("times out with no further remote calls", func(t *testing.T) {
		svc := &fakeService{statuses: []bip.JobState{bip.StateRunning}}
		f := newTestFetcher(svc, 5*time.Millisecond, 20*time.Millisecond)

		_, err := f.AwaitCompletion(context.Background(), "100")
		var timeout *TimeoutError
		require.ErrorAs(t, err, &timeout)
		assert.Equal(t, "100", timeout.JobID)

		calls := svc.statusCalls
		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, calls, svc.statusCalls, "no polling after the timeout error")
	})

	t.Run("cancellation is honored between polls", func(t *testing.T) {
		svc := &fakeService{statuses: []bip.JobState{bip.StateRunning}}
		f := newTestFetcher(svc, 50*time.Millisecond, time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(5 * time.Millisecond)
			cancel()
		}()

		_, err := f.AwaitCompletion(ctx, "100")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestResolveInstanceID(t *testing.T) {
	t.Run("service answer is preferred and not flagged", func(t *testing.T) {
		svc := &fakeService{instances: []string{"201", "202"}}
		f := newTestFetcher(svc, time.Millisecond, time.Second)

		res, err := f.ResolveInstanceID(context.Background(), "200")
		require.NoError(t, err)
		assert.Equal(t, "201", res.InstanceID)
		assert.False(t, res.Fallback)
	})

	t.Run("service error degrades to job id + 1, tagged", func(t *testing.T) {
		svc := &fakeService{instancesErr: errors.New("listing unsupported")}
		f := newTestFetcher(svc, time.Millisecond, time.Second)

		res, err := f.ResolveInstanceID(context.Background(), "2995978")
		require.NoError(t, err)
		assert.Equal(t, "2995979", res.InstanceID)
		assert.True(t, res.Fallback)
	})

	t.Run("empty instance list also degrades", func(t *testing.T) {
		svc := &fakeService{}
		f := newTestFetcher(svc, time.Millisecond, time.Second)

		res, err := f.ResolveInstanceID(context.Background(), "10")
		require.NoError(t, err)
		assert.Equal(t, "11", res.InstanceID)
		assert.True(t, res.Fallback)
	})

	t.Run("non-numeric job id cannot fall back", func(t *testing.T) {
		svc := &fakeService{instancesErr: errors.New("nope")}
		f := newTestFetcher(svc, time.Millisecond, time.Second)

		_, err := f.ResolveInstanceID(context.Background(), "job-abc")
		var resErr *ResolutionError
		require.ErrorAs(t, err, &resErr)
	})
}

func TestDownload(t *testing.T) {
	t.Run("no outputs", func(t *testing.T) {
		f := newTestFetcher(&fakeService{}, time.Millisecond, time.Second)
		_, err := f.Download(context.Background(), "1")
		require.ErrorIs(t, err, ErrNoOutput)
	})

	t.Run("output without id", func(t *testing.T) {
		svc := &fakeService{outputs: []bip.Output{{Name: "nameless"}}}
		f := newTestFetcher(svc, time.Millisecond, time.Second)
		_, err := f.Download(context.Background(), "1")
		require.ErrorIs(t, err, ErrNoOutputID)
	})

	t.Run("raw document passes through", func(t *testing.T) {
		svc := &fakeService{
			outputs: []bip.Output{{ID: "55"}},
			doc:     &bip.Document{Raw: []byte{0x01, 0x02}},
		}
		f := newTestFetcher(svc, time.Millisecond, time.Second)
		data, err := f.Download(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, data)
	})

	t.Run("text document is base64 decoded with padding restored", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte("spreadsheet bytes"))
		stripped := payload
		for len(stripped) > 0 && stripped[len(stripped)-1] == '=' {
			stripped = stripped[:len(stripped)-1]
		}
		require.NotEqual(t, payload, stripped, "fixture must exercise the padding fix")

		svc := &fakeService{
			outputs: []bip.Output{{ID: "55"}},
			doc:     &bip.Document{Base64: stripped},
		}
		f := newTestFetcher(svc, time.Millisecond, time.Second)
		data, err := f.Download(context.Background(), "1")
		require.NoError(t, err)
		assert.Equal(t, []byte("spreadsheet bytes"), data)
	})
}

func TestFetch(t *testing.T) {
	svc := &fakeService{
		submitID:  "100",
		statuses:  []bip.JobState{bip.StateRunning, bip.StateSucceeded},
		instances: []string{"101"},
		outputs:   []bip.Output{{ID: "9"}},
		doc:       &bip.Document{Raw: []byte("artifact")},
	}
	f := newTestFetcher(svc, time.Millisecond, time.Second)

	jobID, data, err := f.Fetch(context.Background(), bip.ReportRequest{})
	require.NoError(t, err)
	assert.Equal(t, "100", jobID)
	assert.Equal(t, []byte("artifact"), data)
}
