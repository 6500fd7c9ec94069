package service

import (
	"context"
	"fmt"
	"testing"

	"text2sql-be/internal/dto"
	"text2sql-be/internal/repository/memory"
	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm"
	"text2sql-be/pkg/llm/registry"
	"text2sql-be/pkg/sqlrag/orchestrator"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

type fakePipeline struct {
	result   *orchestrator.Result
	err      error
	lastReq  orchestrator.Request
	streamed []string
}

func (f *fakePipeline) Run(ctx context.Context, req orchestrator.Request) (*orchestrator.Result, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if req.OnToken != nil {
		for _, token := range f.streamed {
			req.OnToken(token)
		}
	}
	return f.result, nil
}

type fakeProvider struct{}

func (fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", nil
}

func (fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", nil
}

func newServiceUnderTest(pipeline *fakePipeline) (IAgentService, memory.ISessionRepository) {
	models := registry.New()
	models.Register("llama3", fakeProvider{}, registry.Capabilities{StructuredOutput: true, Streaming: true})
	models.Register("gpt-4o", fakeProvider{}, registry.Capabilities{StructuredOutput: true})

	sessions := memory.NewSessionRepository()
	pubSub := gochannel.NewGoChannel(gochannel.Config{BlockPublishUntilSubscriberAck: true}, watermill.NopLogger{})
	channel := events.NewChannelSink(pubSub)

	return NewAgentService(pipeline, models, sessions, channel, nopLogger{}), sessions
}

func defaultResult() *orchestrator.Result {
	return &orchestrator.Result{
		Answer:         "Milk has a 5% tax.",
		SelectedTables: []string{"Goods"},
		SQLStatements:  []string{"SELECT id, Name, Tax FROM Goods WHERE Tax = 5;"},
		Attempts:       1,
	}
}

func TestAskRecordsSessionAfterSuccess(t *testing.T) {
	pipeline := &fakePipeline{result: defaultResult()}
	svc, sessions := newServiceUnderTest(pipeline)

	res, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "what are the products with 5% tax?"})

	require.NoError(t, err)
	assert.Equal(t, "Milk has a 5% tax.", res.Answer)
	assert.NotEmpty(t, res.RunID)
	assert.NotEmpty(t, res.SessionID)

	session, found := sessions.Get(res.SessionID)
	require.True(t, found)
	require.Len(t, session.Turns, 2)
	assert.Equal(t, "what are the products with 5% tax?", session.Turns[0].Content)
	assert.Equal(t, "Milk has a 5% tax.", session.Turns[1].Content)
}

func TestAskFailureLeavesSessionUntouched(t *testing.T) {
	pipeline := &fakePipeline{err: fmt.Errorf("model unavailable")}
	svc, sessions := newServiceUnderTest(pipeline)

	_, err := svc.Ask(context.Background(), &dto.AskRequest{
		Message:   "question",
		SessionID: "session-1",
	})

	require.Error(t, err)
	_, found := sessions.Get("session-1")
	assert.False(t, found)
}

func TestAskReusesExistingSession(t *testing.T) {
	pipeline := &fakePipeline{result: defaultResult()}
	svc, sessions := newServiceUnderTest(pipeline)

	first, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "first question"})
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), &dto.AskRequest{
		Message:   "second question",
		SessionID: first.SessionID,
	})
	require.NoError(t, err)

	session, found := sessions.Get(first.SessionID)
	require.True(t, found)
	assert.Len(t, session.Turns, 4)
}

func TestAskForwardsModelChoice(t *testing.T) {
	pipeline := &fakePipeline{result: defaultResult()}
	svc, _ := newServiceUnderTest(pipeline)

	_, err := svc.Ask(context.Background(), &dto.AskRequest{Message: "q", Model: "gpt-4o"})

	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", pipeline.lastReq.Model)
}

func TestAskStreamDeliversTokensAndDone(t *testing.T) {
	pipeline := &fakePipeline{result: defaultResult(), streamed: []string{"Milk ", "has 5% tax."}}
	svc, _ := newServiceUnderTest(pipeline)

	var frames []events.Frame
	err := svc.AskStream(context.Background(), &dto.AskRequest{Message: "q"}, func(frame events.Frame) error {
		frames = append(frames, frame)
		return nil
	})

	require.NoError(t, err)
	require.NotEmpty(t, frames)

	var tokens []string
	for _, frame := range frames {
		if frame.Event == "on_llm_new_token" {
			tokens = append(tokens, frame.Data["token"].(string))
		}
	}
	assert.Equal(t, []string{"Milk ", "has 5% tax."}, tokens)

	last := frames[len(frames)-1]
	assert.Equal(t, "on_done", last.Event)
	assert.Equal(t, "Milk has a 5% tax.", last.Data["answer"])
}

func TestAskStreamReportsPipelineError(t *testing.T) {
	pipeline := &fakePipeline{err: fmt.Errorf("model unavailable")}
	svc, _ := newServiceUnderTest(pipeline)

	var frames []events.Frame
	err := svc.AskStream(context.Background(), &dto.AskRequest{Message: "q"}, func(frame events.Frame) error {
		frames = append(frames, frame)
		return nil
	})

	require.NoError(t, err)
	require.NotEmpty(t, frames)
	assert.Equal(t, "on_error", frames[len(frames)-1].Event)
}

func TestModels(t *testing.T) {
	svc, _ := newServiceUnderTest(&fakePipeline{result: defaultResult()})

	infos := svc.Models()

	require.Len(t, infos, 2)
	assert.Equal(t, "gpt-4o", infos[0].Name)
	assert.False(t, infos[0].Default)
	assert.Equal(t, "llama3", infos[1].Name)
	assert.True(t, infos[1].Default)
	assert.True(t, infos[1].Streaming)
}

func TestShowSessionNotFound(t *testing.T) {
	svc, _ := newServiceUnderTest(&fakePipeline{result: defaultResult()})

	_, err := svc.ShowSession("missing")

	require.Error(t, err)
}
