package rpcservice

// schemaSource is the wire schema for the Telescope service, loaded
// at server start via protoparse/protoreflect the way the teacher's
// evaluator/builtins_grpc.go loads a caller-supplied .proto string
// into a dynamic descriptor rather than linking a protoc-generated
// package — there is exactly one schema here, so unlike the teacher
// (which loads an arbitrary .proto per script) this one is a
// constant, not a runtime argument.
const schemaSource = `
syntax = "proto3";

package telescope;

message ElaborateRequest {
  string source = 1;
  // expected, when non-empty, is a second term elaborated against U
  // and used to Check source instead of just inferring it.
  string expected = 2;
}

message ElaborateResponse {
  string result = 1;
  string error = 2;
}

message NormalizeRequest {
  string source = 1;
  string expected = 2;
}

message NormalizeResponse {
  string result = 1;
  string error = 2;
}

message InferRequest {
  string source = 1;
  string expected = 2;
}

message InferResponse {
  string type = 1;
  string error = 2;
}

service Telescope {
  rpc Elaborate(ElaborateRequest) returns (ElaborateResponse);
  rpc Normalize(NormalizeRequest) returns (NormalizeResponse);
  rpc Infer(InferRequest) returns (InferResponse);
}
`
