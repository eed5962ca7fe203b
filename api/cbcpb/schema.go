// Package cbcpb defines CompileService's wire schema: two request/response
// message pairs and one service, built programmatically with
// google.golang.org/protobuf's protodesc/dynamicpb rather than through
// protoc-generated stubs, since nothing in this module's own build ever
// invokes protoc. A dynamicpb.Message satisfies proto.Message the same way
// generated code would, so it works unmodified with grpc's default codec.
package cbcpb

import (
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

func strp(s string) *string { return &s }

func scalarField(name string, number int32, kind descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto {
	label := descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL
	return &descriptorpb.FieldDescriptorProto{
		Name:   strp(name),
		Number: &number,
		Label:  &label,
		Type:   &kind,
	}
}

func repeatedStringField(name string, number int32) *descriptorpb.FieldDescriptorProto {
	label := descriptorpb.FieldDescriptorProto_LABEL_REPEATED
	kind := descriptorpb.FieldDescriptorProto_TYPE_STRING
	return &descriptorpb.FieldDescriptorProto{
		Name:   strp(name),
		Number: &number,
		Label:  &label,
		Type:   &kind,
	}
}

// fileProto is cbc.proto's schema, written out as a FileDescriptorProto
// directly instead of as .proto source text, since there is no protoc
// invocation in this build to compile .proto source down to this same
// shape.
var fileProto = &descriptorpb.FileDescriptorProto{
	Name:    strp("cbc.proto"),
	Package: strp("cbcpb"),
	Syntax:  strp("proto3"),
	MessageType: []*descriptorpb.DescriptorProto{
		{
			Name: strp("CompileRequest"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalarField("source", 1, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("goal", 2, descriptorpb.FieldDescriptorProto_TYPE_STRING),
				scalarField("correlation_id", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			},
		},
		{
			Name: strp("CompileResponse"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalarField("blob", 1, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
				repeatedStringField("diagnostics", 2),
				scalarField("correlation_id", 3, descriptorpb.FieldDescriptorProto_TYPE_STRING),
			},
		},
		{
			Name: strp("DescribeRequest"),
			Field: []*descriptorpb.FieldDescriptorProto{
				scalarField("blob", 1, descriptorpb.FieldDescriptorProto_TYPE_BYTES),
			},
		},
		{
			Name: strp("DescribeResponse"),
			Field: []*descriptorpb.FieldDescriptorProto{
				repeatedStringField("literal_kinds", 1),
			},
		},
	},
	Service: []*descriptorpb.ServiceDescriptorProto{
		{
			Name: strp("CompileService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				{Name: strp("Compile"), InputType: strp(".cbcpb.CompileRequest"), OutputType: strp(".cbcpb.CompileResponse")},
				{Name: strp("Describe"), InputType: strp(".cbcpb.DescribeRequest"), OutputType: strp(".cbcpb.DescribeResponse")},
			},
		},
	},
}

// File is cbc.proto's built file descriptor, resolved once at package init.
var File protoreflect.FileDescriptor

func init() {
	f, err := protodesc.NewFile(fileProto, protoregistry.GlobalFiles)
	if err != nil {
		panic("cbcpb: building file descriptor: " + err.Error())
	}
	File = f
}

func messageDescriptor(name string) protoreflect.MessageDescriptor {
	md := File.Messages().ByName(protoreflect.Name(name))
	if md == nil {
		panic("cbcpb: no such message: " + name)
	}
	return md
}

var (
	CompileRequestDescriptor   = messageDescriptor("CompileRequest")
	CompileResponseDescriptor  = messageDescriptor("CompileResponse")
	DescribeRequestDescriptor  = messageDescriptor("DescribeRequest")
	DescribeResponseDescriptor = messageDescriptor("DescribeResponse")
)

func NewCompileRequest() *dynamicpb.Message   { return dynamicpb.NewMessage(CompileRequestDescriptor) }
func NewCompileResponse() *dynamicpb.Message  { return dynamicpb.NewMessage(CompileResponseDescriptor) }
func NewDescribeRequest() *dynamicpb.Message  { return dynamicpb.NewMessage(DescribeRequestDescriptor) }
func NewDescribeResponse() *dynamicpb.Message { return dynamicpb.NewMessage(DescribeResponseDescriptor) }

func field(m *dynamicpb.Message, name string) protoreflect.FieldDescriptor {
	fd := m.Descriptor().Fields().ByName(protoreflect.Name(name))
	if fd == nil {
		panic("cbcpb: no such field: " + name)
	}
	return fd
}

// SetString/GetString, SetBytes/GetBytes, and AppendString/RepeatedStrings
// are the only field accessors CompileService's handlers need; a dynamicpb
// message needs a field descriptor looked up by name for every Get/Set, so
// these wrap that lookup instead of repeating it at every call site.

func SetString(m *dynamicpb.Message, name, v string) {
	m.Set(field(m, name), protoreflect.ValueOfString(v))
}

func GetString(m *dynamicpb.Message, name string) string {
	return m.Get(field(m, name)).String()
}

func SetBytes(m *dynamicpb.Message, name string, v []byte) {
	m.Set(field(m, name), protoreflect.ValueOfBytes(v))
}

func GetBytes(m *dynamicpb.Message, name string) []byte {
	return m.Get(field(m, name)).Bytes()
}

func AppendString(m *dynamicpb.Message, name, v string) {
	list := m.Mutable(field(m, name)).List()
	list.Append(protoreflect.ValueOfString(v))
}

func RepeatedStrings(m *dynamicpb.Message, name string) []string {
	list := m.Get(field(m, name)).List()
	out := make([]string, list.Len())
	for i := 0; i < list.Len(); i++ {
		out[i] = list.Get(i).String()
	}
	return out
}
