package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"visaworkflow-backend/lib/visa"

	"connectrpc.com/connect"
)

const (
	ServiceName      = "visaworkflow.v1.WorkflowService"
	ExecuteProcedure = "/" + ServiceName + "/Execute"
)

// jsonCodec carries the messages of the workflow service as plain json,
// the service has no protobuf schema.
type jsonCodec struct{}

func (jsonCodec) Name() string {
	return "json"
}

func (jsonCodec) Marshal(message any) ([]byte, error) {
	return json.Marshal(message)
}

func (jsonCodec) Unmarshal(data []byte, message any) error {
	return json.Unmarshal(data, message)
}

type ExecuteRequest struct {
	Country     string   `json:"country"`
	VisaType    string   `json:"visa_type"`
	ReturnTypes []string `json:"return_types"`
}

type ExecuteResponse struct {
	Result visa.Result `json:"result"`
}

type Service struct {
	agent Agent
}

func NewService(agent Agent) Service {
	return Service{agent: agent}
}

func (s Service) Execute(ctx context.Context, req *connect.Request[ExecuteRequest]) (*connect.Response[ExecuteResponse], error) {
	categories, err := visa.ParseCategories(req.Msg.ReturnTypes)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	result, err := s.agent.Execute(ctx, Query{
		Country:    req.Msg.Country,
		VisaType:   req.Msg.VisaType,
		Categories: categories,
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}
	return connect.NewResponse(&ExecuteResponse{Result: result}), nil
}

// NewHandler returns the path the service is mounted on and its handler.
func NewHandler(service Service, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append(opts, connect.WithCodec(jsonCodec{}))
	execute := connect.NewUnaryHandler(ExecuteProcedure, service.Execute, opts...)

	return "/" + ServiceName + "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case ExecuteProcedure:
			execute.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// Client calls a remote workflow service.
type Client struct {
	execute *connect.Client[ExecuteRequest, ExecuteResponse]
}

func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) Client {
	opts = append(opts, connect.WithCodec(jsonCodec{}))
	baseURL = strings.TrimRight(baseURL, "/")
	return Client{
		execute: connect.NewClient[ExecuteRequest, ExecuteResponse](httpClient, baseURL+ExecuteProcedure, opts...),
	}
}

func (c Client) Execute(ctx context.Context, query Query) (visa.Result, error) {
	names := make([]string, len(query.Categories))
	for i, category := range query.Categories {
		names[i] = category.String()
	}

	res, err := c.execute.CallUnary(ctx, connect.NewRequest(&ExecuteRequest{
		Country:     query.Country,
		VisaType:    query.VisaType,
		ReturnTypes: names,
	}))
	if err != nil {
		return visa.Result{}, err
	}
	return res.Msg.Result, nil
}
