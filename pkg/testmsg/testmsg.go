// Copyright 2025 libprotobuf-mutator authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package testmsg builds the proto2 message schemas the engine is
// tested and benchmarked against. The descriptors are assembled at
// runtime from descriptorpb, so no generated code or protoc step is
// needed; messages are dynamicpb instances.
package testmsg

import (
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

var fileDesc protoreflect.FileDescriptor

func init() {
	fd, err := protodesc.NewFile(fileProto(), nil)
	if err != nil {
		panic(fmt.Sprintf("testmsg: build descriptor: %v", err))
	}
	fileDesc = fd
}

// FileDescriptor returns the descriptor of the test schema file.
func FileDescriptor() protoreflect.FileDescriptor {
	return fileDesc
}

// NewMsg returns an empty Msg: one field of every scalar kind, an enum,
// a oneof, a recursive message field, and repeated fields.
func NewMsg() *dynamicpb.Message {
	return dynamicpb.NewMessage(messageDesc("Msg"))
}

// NewNode returns an empty Node, the recursive message type used for
// nested and repeated message fields.
func NewNode() *dynamicpb.Message {
	return dynamicpb.NewMessage(messageDesc("Node"))
}

// NewPair returns an empty Pair: exactly two optional int32 fields.
func NewPair() *dynamicpb.Message {
	return dynamicpb.NewMessage(messageDesc("Pair"))
}

// NewReq returns an empty ReqMsg: a required int32 and a required
// nested message that itself carries a required field.
func NewReq() *dynamicpb.Message {
	return dynamicpb.NewMessage(messageDesc("ReqMsg"))
}

// NewEmpty returns an instance of the field-less Empty message.
func NewEmpty() *dynamicpb.Message {
	return dynamicpb.NewMessage(messageDesc("Empty"))
}

// Field returns the named field descriptor of m.
func Field(m *dynamicpb.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic(fmt.Sprintf("testmsg: unknown field %q in %v", name, m.Descriptor().FullName()))
	}
	return fd
}

func messageDesc(name protoreflect.Name) protoreflect.MessageDescriptor {
	md := fileDesc.Messages().ByName(name)
	if md == nil {
		panic(fmt.Sprintf("testmsg: unknown message %q", name))
	}
	return md
}

func field(name string, number int32, label descriptorpb.FieldDescriptorProto_Label,
	typ descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	return &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  label.Enum(),
		Type:   typ.Enum(),
	}
}

func namedField(name string, number int32, label descriptorpb.FieldDescriptorProto_Label,
	typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	f := field(name, number, label, typ)
	f.TypeName = proto.String(typeName)
	return f
}

func oneofField(name string, number int32, typ descriptorpb.FieldDescriptorProto_Type,
	oneofIndex int32) *descriptorpb.FieldDescriptorProto {
	f := field(name, number, descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL, typ)
	f.OneofIndex = proto.Int32(oneofIndex)
	return f
}

func fileProto() *descriptorpb.FileDescriptorProto {
	const (
		optional = descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
		required = descriptorpb.FieldDescriptorProto_LABEL_REQUIRED
		repeated = descriptorpb.FieldDescriptorProto_LABEL_REPEATED

		tInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
		tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
		tUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
		tUint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
		tFloat   = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
		tDouble  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
		tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
		tBytes   = descriptorpb.FieldDescriptorProto_TYPE_BYTES
		tEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
		tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	)

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("testmsg.proto"),
		Package: proto.String("testmsg"),
		Syntax:  proto.String("proto2"),
		EnumType: []*descriptorpb.EnumDescriptorProto{{
			Name: proto.String("Color"),
			Value: []*descriptorpb.EnumValueDescriptorProto{
				{Name: proto.String("RED"), Number: proto.Int32(1)},
				{Name: proto.String("GREEN"), Number: proto.Int32(2)},
				{Name: proto.String("BLUE"), Number: proto.Int32(3)},
			},
		}},
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Node"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("leaf", 1, optional, tInt32),
					namedField("child", 2, optional, tMessage, ".testmsg.Node"),
					field("values", 3, repeated, tInt32),
				},
			},
			{
				Name: proto.String("Msg"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("i32", 1, optional, tInt32),
					field("i64", 2, optional, tInt64),
					field("u32", 3, optional, tUint32),
					field("u64", 4, optional, tUint64),
					field("f32", 5, optional, tFloat),
					field("f64", 6, optional, tDouble),
					field("flag", 7, optional, tBool),
					field("name", 8, optional, tString),
					field("raw", 9, optional, tBytes),
					namedField("color", 10, optional, tEnum, ".testmsg.Color"),
					namedField("node", 11, optional, tMessage, ".testmsg.Node"),
					namedField("nodes", 12, repeated, tMessage, ".testmsg.Node"),
					field("xs", 13, repeated, tInt32),
					field("labels", 14, repeated, tString),
					oneofField("oneof_i32", 15, tInt32, 0),
					oneofField("oneof_str", 16, tString, 0),
				},
				OneofDecl: []*descriptorpb.OneofDescriptorProto{
					{Name: proto.String("choice")},
				},
			},
			{
				Name: proto.String("Pair"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("a", 1, optional, tInt32),
					field("b", 2, optional, tInt32),
				},
			},
			{
				Name: proto.String("ReqNode"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("id", 1, required, tInt32),
				},
			},
			{
				Name: proto.String("ReqMsg"),
				Field: []*descriptorpb.FieldDescriptorProto{
					field("id", 1, required, tInt32),
					namedField("node", 2, required, tMessage, ".testmsg.ReqNode"),
					field("opt", 3, optional, tInt32),
				},
			},
			{
				Name: proto.String("Empty"),
			},
		},
	}
}
