package services

import (
	"context"

	"github.com/kubev2v/asset-agent/internal/message"
	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

// MessageHandler applies decoded asset change messages to the directory.
type MessageHandler struct {
	assets    *AssetService
	converter *Converter
}

func NewMessageHandler(assets *AssetService, converter *Converter) *MessageHandler {
	return &MessageHandler{assets: assets, converter: converter}
}

// Handle applies m and returns the message describing the stored result. For delete
// the result carries only the name and operation.
func (h *MessageHandler) Handle(ctx context.Context, m *message.Message) (*message.Message, error) {
	if m.Kind != message.KindAsset {
		return nil, srvErrors.NewWrongMessageTypeError(message.KindAsset, m.Kind)
	}

	switch m.Operation {
	case message.OpCreate, message.OpUpdate:
		asset, err := h.converter.FromMessage(ctx, m, false)
		if err != nil {
			return nil, err
		}
		if _, err := h.assets.Upsert(ctx, asset, m.Operation == message.OpUpdate); err != nil {
			return nil, err
		}
	case message.OpDelete:
		if _, err := h.assets.Delete(ctx, m.Name); err != nil {
			return nil, err
		}
		return message.New(m.Name, message.OpDelete), nil
	case message.OpRetire:
		if err := h.assets.Retire(ctx, m.Name); err != nil {
			return nil, err
		}
	case message.OpInventory:
		if _, err := h.assets.Inventory(ctx, m.Name, m.Ext); err != nil {
			return nil, err
		}
	case message.OpGet:
	default:
		return nil, srvErrors.NewInvalidFormatError("unsupported operation %q for %q", m.Operation, m.Name)
	}

	stored, err := h.assets.Get(ctx, m.Name)
	if err != nil {
		return nil, err
	}
	return h.converter.ToMessage(ctx, stored, m.Operation)
}
