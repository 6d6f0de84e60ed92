package ipc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"glaze/internal/config"
	"glaze/internal/taskbar"
)

// HistorySource provides recorded appearance transitions, newest first.
type HistorySource interface {
	Recent(ctx context.Context, limit int) ([]taskbar.Transition, error)
}

// DaemonHandler answers control requests against the running daemon.
type DaemonHandler struct {
	Version   string
	StartedAt time.Time
	Worker    *taskbar.Worker
	Loader    *config.Loader

	// History is optional; nil when the transition journal is disabled.
	History HistorySource

	// OnShutdown is invoked after a shutdown request has been
	// acknowledged. It must not block.
	OnShutdown func()

	Logger *slog.Logger
}

// HandleMessage implements Handler.
func (h *DaemonHandler) HandleMessage(ctx context.Context, msg *Message) (*Message, error) {
	switch msg.Header.Type {
	case MsgStatus:
		return h.handleStatus(msg)
	case MsgApply:
		return h.handleApply(ctx, msg)
	case MsgDump:
		return h.handleDump(ctx, msg)
	case MsgReset:
		return h.handleReset(ctx, msg)
	case MsgReload:
		return h.handleReload(msg)
	case MsgHistory:
		return h.handleHistory(ctx, msg)
	case MsgSetConfig:
		return h.handleSetConfig(msg)
	case MsgShutdown:
		return h.handleShutdown(msg)
	default:
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest,
			fmt.Sprintf("unsupported message type %s", msg.Header.Type)), nil
	}
}

func (h *DaemonHandler) handleStatus(msg *Message) (*Message, error) {
	now := time.Now()
	sr := &StatusResponse{
		Version:      h.Version,
		PID:          os.Getpid(),
		StartedAt:    h.StartedAt,
		UptimeSec:    int64(now.Sub(h.StartedAt).Seconds()),
		WorkerStatus: h.Worker.Status().String(),
	}
	if h.Loader != nil {
		sr.ConfigPath = h.Loader.Path()
		sr.ConfigSummary = h.Loader.Config().Summary()
	}
	return NewResponse(msg, MsgStatusResp, sr)
}

func (h *DaemonHandler) handleApply(ctx context.Context, msg *Message) (*Message, error) {
	if err := h.Worker.ApplyNow(ctx); err != nil {
		return h.workerError(msg, err), nil
	}
	return NewResponse(msg, MsgApplyResp, nil)
}

func (h *DaemonHandler) handleDump(ctx context.Context, msg *Message) (*Message, error) {
	dump, err := h.Worker.DumpState(ctx)
	if err != nil {
		return h.workerError(msg, err), nil
	}
	return NewResponse(msg, MsgDumpResp, &DumpResponse{Dump: dump})
}

func (h *DaemonHandler) handleReset(ctx context.Context, msg *Message) (*Message, error) {
	if err := h.Worker.ResetState(ctx); err != nil {
		return h.workerError(msg, err), nil
	}
	return NewResponse(msg, MsgResetResp, nil)
}

func (h *DaemonHandler) handleReload(msg *Message) (*Message, error) {
	if h.Loader == nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeUnavailable, "no config loader"), nil
	}
	cfg, err := h.Loader.Reload()
	if err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, err.Error()), nil
	}
	return NewResponse(msg, MsgReloadResp, &ReloadResponse{ConfigSummary: cfg.Summary()})
}

func (h *DaemonHandler) handleHistory(ctx context.Context, msg *Message) (*Message, error) {
	if h.History == nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeUnavailable,
			"transition journal is disabled"), nil
	}

	var req HistoryRequest
	if msg.Header.Flags&FlagJSON != 0 {
		if err := msg.Decode(&req); err != nil {
			return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, err.Error()), nil
		}
	}
	if req.Limit <= 0 || req.Limit > 1000 {
		req.Limit = 50
	}

	transitions, err := h.History.Recent(ctx, req.Limit)
	if err != nil {
		return nil, err
	}

	entries := make([]HistoryEntry, 0, len(transitions))
	for _, tr := range transitions {
		entries = append(entries, HistoryEntry{
			Time:      tr.Time,
			Window:    uint64(tr.Window),
			Monitor:   uint64(tr.Monitor),
			Secondary: tr.Secondary,
			State:     tr.State.String(),
			Accent:    tr.Accent.String(),
			Color:     tr.Color.String(),
			Err:       tr.Err,
		})
	}
	return NewResponse(msg, MsgHistoryResp, &HistoryResponse{Entries: entries})
}

func (h *DaemonHandler) handleSetConfig(msg *Message) (*Message, error) {
	if h.Loader == nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeUnavailable, "no config loader"), nil
	}

	var req SetConfigRequest
	if err := msg.Decode(&req); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, err.Error()), nil
	}

	cfg := config.DefaultConfig()
	if err := toml.Unmarshal([]byte(req.TOML), cfg); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest,
			fmt.Sprintf("parse config: %v", err)), nil
	}
	if err := h.Loader.Replace(cfg); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrCodeInvalidRequest, err.Error()), nil
	}
	return NewResponse(msg, MsgSetConfigResp, nil)
}

func (h *DaemonHandler) handleShutdown(msg *Message) (*Message, error) {
	if h.Logger != nil {
		h.Logger.Info("shutdown requested over ipc")
	}
	if h.OnShutdown != nil {
		h.OnShutdown()
	}
	// Ack with the same type so the client knows the request landed.
	return NewResponse(msg, MsgShutdown, nil)
}

func (h *DaemonHandler) workerError(msg *Message, err error) *Message {
	code := ErrCodeInternal
	if err == taskbar.ErrNotRunning {
		code = ErrCodeNotRunning
	}
	return NewErrorMessage(msg.Header.RequestID, code, err.Error())
}
