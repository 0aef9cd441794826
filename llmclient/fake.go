package llmclient

import "context"

// FakeClient is a deterministic, in-memory Client used by this module's
// own tests. It is not a provider integration — it never makes a network
// call — and exists purely so runtime and workflow tests can drive a
// turn without a real LLM backend.
type FakeClient struct {
	// OutputChunks are emitted in order as EventOutputItemDone events.
	OutputChunks []string
	// TotalTokens is reported on the terminal EventCompleted event.
	TotalTokens int
	// Err, if set, is emitted as a terminal EventError instead of
	// completing normally.
	Err error
}

func (f *FakeClient) Stream(ctx context.Context, prompt Prompt) (<-chan Event, error) {
	ch := make(chan Event, len(f.OutputChunks)+2)

	ch <- Event{Kind: EventCreated}
	for _, chunk := range f.OutputChunks {
		select {
		case <-ctx.Done():
			ch <- Event{Kind: EventError, Err: ctx.Err()}
			close(ch)
			return ch, nil
		default:
		}
		ch <- Event{Kind: EventOutputItemDone, OutputText: chunk}
	}

	if f.Err != nil {
		ch <- Event{Kind: EventError, Err: f.Err}
	} else {
		ch <- Event{Kind: EventCompleted, TotalTokens: f.TotalTokens}
	}
	close(ch)
	return ch, nil
}
