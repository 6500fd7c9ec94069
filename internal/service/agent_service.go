package service

import (
	"context"
	"encoding/json"
	"fmt"

	"text2sql-be/internal/dto"
	"text2sql-be/internal/entity"
	"text2sql-be/internal/pkg/logger"
	"text2sql-be/internal/repository/memory"
	"text2sql-be/pkg/events"
	"text2sql-be/pkg/llm/registry"
	"text2sql-be/pkg/sqlrag/orchestrator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAgentService interface {
	Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error)

	// AskStream runs the pipeline while relaying every pipeline event and
	// answer token to send as it happens. It returns once the run finished
	// or send reported a dead client.
	AskStream(ctx context.Context, req *dto.AskRequest, send func(frame events.Frame) error) error

	Models() []dto.ModelInfo
	ShowSession(sessionID string) (*dto.SessionResponse, error)
	DeleteSession(sessionID string)
}

type agentService struct {
	pipeline orchestrator.IOrchestrator
	models   *registry.Registry
	sessions memory.ISessionRepository
	channel  *events.ChannelSink
	logger   logger.ILogger
}

func NewAgentService(
	pipeline orchestrator.IOrchestrator,
	models *registry.Registry,
	sessions memory.ISessionRepository,
	channel *events.ChannelSink,
	sysLogger logger.ILogger,
) IAgentService {
	return &agentService{
		pipeline: pipeline,
		models:   models,
		sessions: sessions,
		channel:  channel,
		logger:   sysLogger,
	}
}

func (s *agentService) Ask(ctx context.Context, req *dto.AskRequest) (*dto.AskResponse, error) {
	runID := uuid.NewString()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	result, err := s.pipeline.Run(ctx, orchestrator.Request{
		Question: req.Message,
		Model:    req.Model,
		RunID:    runID,
	})
	if err != nil {
		s.logger.Error("agent_service", "pipeline run failed", map[string]interface{}{
			"run_id": runID,
			"error":  err.Error(),
		})
		return nil, err
	}

	s.recordExchange(sessionID, req.Message, result.Answer)
	s.logger.Info("agent_service", "pipeline run completed", map[string]interface{}{
		"run_id":   runID,
		"attempts": result.Attempts,
		"tables":   result.SelectedTables,
	})

	return &dto.AskResponse{
		RunID:          runID,
		SessionID:      sessionID,
		Answer:         result.Answer,
		SelectedTables: result.SelectedTables,
		SQLStatements:  result.SQLStatements,
		Attempts:       result.Attempts,
	}, nil
}

func (s *agentService) AskStream(ctx context.Context, req *dto.AskRequest, send func(frame events.Frame) error) error {
	runID := uuid.NewString()
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	messages, err := s.channel.Subscribe(streamCtx, runID)
	if err != nil {
		return err
	}

	go func() {
		result, runErr := s.pipeline.Run(streamCtx, orchestrator.Request{
			Question: req.Message,
			Model:    req.Model,
			RunID:    runID,
			OnToken: func(token string) {
				s.channel.Emit("on_llm_new_token", map[string]interface{}{"token": token}, runID)
			},
		})
		if runErr != nil {
			s.logger.Error("agent_service", "pipeline stream failed", map[string]interface{}{
				"run_id": runID,
				"error":  runErr.Error(),
			})
			s.channel.Emit("on_error", map[string]interface{}{"error": runErr.Error()}, runID)
			return
		}

		s.recordExchange(sessionID, req.Message, result.Answer)
		s.channel.Emit("on_done", map[string]interface{}{
			"answer":          result.Answer,
			"session_id":      sessionID,
			"selected_tables": result.SelectedTables,
			"sql_statements":  result.SQLStatements,
			"attempts":        result.Attempts,
		}, runID)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var frame events.Frame
			if err := json.Unmarshal(msg.Payload, &frame); err != nil {
				msg.Ack()
				continue
			}
			msg.Ack()

			if err := send(frame); err != nil {
				// Client hung up; cancelling the context stops the run.
				return err
			}
			if frame.Event == "on_done" || frame.Event == "on_error" {
				return nil
			}
		}
	}
}

func (s *agentService) Models() []dto.ModelInfo {
	defaultName := s.models.DefaultName()

	var infos []dto.ModelInfo
	for _, name := range s.models.Names() {
		entry, ok := s.models.Get(name)
		if !ok {
			continue
		}
		infos = append(infos, dto.ModelInfo{
			Name:             name,
			Default:          name == defaultName,
			StructuredOutput: entry.Capabilities.StructuredOutput,
			Streaming:        entry.Capabilities.Streaming,
		})
	}
	return infos
}

func (s *agentService) ShowSession(sessionID string) (*dto.SessionResponse, error) {
	session, found := s.sessions.Get(sessionID)
	if !found {
		return nil, fiber.NewError(fiber.StatusNotFound, fmt.Sprintf("session %s not found", sessionID))
	}
	return &dto.SessionResponse{ID: session.ID, Turns: session.Turns}, nil
}

func (s *agentService) DeleteSession(sessionID string) {
	s.sessions.Delete(sessionID)
}

// recordExchange appends the turn pair after a successful run only.
func (s *agentService) recordExchange(sessionID, question, answer string) {
	session, found := s.sessions.Get(sessionID)
	if !found {
		session = entity.NewSession(sessionID)
	}
	session.Append(entity.TurnRoleUser, question)
	session.Append(entity.TurnRoleAssistant, answer)
	s.sessions.Save(session)
}
