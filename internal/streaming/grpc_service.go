package streaming

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tomblanch118/DAB/internal/game"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// StatusSource is the read side of the game controller.
type StatusSource interface {
	Status() game.Status
}

type GameService struct {
	source StatusSource
	events *game.Broadcaster
	logger *zap.Logger
}

func NewGameService(source StatusSource, events *game.Broadcaster, logger *zap.Logger) *GameService {
	return &GameService{
		source: source,
		events: events,
		logger: logger,
	}
}

func (s *GameService) GetStatus(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := toStruct(s.source.Status())
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return st, nil
}

// StreamEvents sends every controller event until the client goes away.
func (s *GameService) StreamEvents(_ *emptypb.Empty, stream grpc.ServerStream) error {
	eventCh := s.events.Subscribe()
	defer s.events.Unsubscribe(eventCh)

	s.logger.Debug("gRPC event stream opened")
	defer s.logger.Debug("gRPC event stream closed")

	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return nil
			}

			msg, err := toStruct(event)
			if err != nil {
				return status.Errorf(codes.Internal, "encode event: %v", err)
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}

		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

// toStruct converts v through its JSON form so gRPC clients see the same
// field names as REST clients.
func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("not an object: %w", err)
	}
	return structpb.NewStruct(m)
}
