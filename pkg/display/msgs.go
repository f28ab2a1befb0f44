package display

import "github.com/golang/protobuf/proto"

// StatusEvent is published (retained) whenever a node's display changes.
type StatusEvent struct {
	Role string `protobuf:"bytes,1,opt,name=role,proto3" json:"role,omitempty"`
	ID   string `protobuf:"bytes,2,opt,name=id,proto3" json:"id,omitempty"`
	Mode string `protobuf:"bytes,3,opt,name=mode,proto3" json:"mode,omitempty"`
	On   bool   `protobuf:"varint,4,opt,name=on,proto3" json:"on,omitempty"`
	Seq  uint64 `protobuf:"varint,5,opt,name=seq,proto3" json:"seq,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *StatusEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *StatusEvent) Reset() { *m = StatusEvent{} }

// String implements proto.Message.
func (m *StatusEvent) String() string { return proto.CompactTextString(m) }

// DecodeStatusEvent decodes a published StatusEvent.
func DecodeStatusEvent(data []byte) (*StatusEvent, error) {
	var ev StatusEvent
	if err := proto.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
