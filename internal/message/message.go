// Package message defines the asset change message exchanged over the bus.
package message

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	srvErrors "github.com/kubev2v/asset-agent/pkg/errors"
)

const KindAsset = "ASSET"

type Operation string

const (
	OpCreate    Operation = "create"
	OpUpdate    Operation = "update"
	OpDelete    Operation = "delete"
	OpGet       Operation = "get"
	OpRetire    Operation = "retire"
	OpInventory Operation = "inventory"
)

func ParseOperation(s string) (Operation, error) {
	switch op := Operation(s); op {
	case OpCreate, OpUpdate, OpDelete, OpGet, OpRetire, OpInventory:
		return op, nil
	default:
		return "", fmt.Errorf("invalid operation: %s", s)
	}
}

// Aux keys.
const (
	AuxPriority = "priority"
	AuxType     = "type"
	AuxSubtype  = "subtype"
	AuxStatus   = "status"
	AuxParent   = "parent"
)

// Message is an asset change notification. Aux carries the asset fields, Ext the
// flattened extended attributes.
type Message struct {
	Kind      string            `cbor:"1,keyasint"`
	Name      string            `cbor:"2,keyasint"`
	Operation Operation         `cbor:"3,keyasint"`
	Aux       map[string]string `cbor:"4,keyasint,omitempty"`
	Ext       map[string]string `cbor:"5,keyasint,omitempty"`
}

func New(name string, op Operation) *Message {
	return &Message{
		Kind:      KindAsset,
		Name:      name,
		Operation: op,
		Aux:       map[string]string{},
		Ext:       map[string]string{},
	}
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("unable to build cbor encoder: " + err.Error())
	}
	return em
}()

func (m *Message) Encode() ([]byte, error) {
	return encMode.Marshal(m)
}

func Decode(data []byte) (*Message, error) {
	var m Message
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, srvErrors.NewInvalidFormatError("failed to decode message: %v", err)
	}
	if m.Aux == nil {
		m.Aux = map[string]string{}
	}
	if m.Ext == nil {
		m.Ext = map[string]string{}
	}
	return &m, nil
}
