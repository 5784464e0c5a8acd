package grpc

import (
	"context"
	"fmt"
	"time"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/common"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

var (
	userIdValidator = z.String().Min(1).Required()
	spanValidator   = z.Int().GTE(1).LTE(366)
	monthsValidator = z.Int().GTE(1).LTE(120)
	litersValidator = z.Float64().GTE(0)
	burstValidator  = z.Int().GTE(0)
)

func validateUserID(userID *string) z.ZogIssueList {
	return userIdValidator.Validate(userID)
}

// windowSpecFrom reads kind, direction, span and months. Missing values
// take the weekly, backward, 7 day, 12 month defaults.
func windowSpecFrom(req *structpb.Struct) (aqua.WindowSpec, error) {
	kind := aqua.WindowWeekly
	if raw := stringField(req, "kind"); raw != "" {
		parsed, err := aqua.ParseWindowKind(raw)
		if err != nil {
			return aqua.WindowSpec{}, err
		}
		kind = parsed
	}

	direction, err := aqua.ParseDirection(stringField(req, "direction"))
	if err != nil {
		return aqua.WindowSpec{}, err
	}

	spec := aqua.WindowSpec{
		Kind:       kind,
		Direction:  direction,
		SpanDays:   intField(req, "span", aqua.DefaultSpanDays),
		MonthCount: intField(req, "months", aqua.DefaultMonthCount),
	}

	if errs := spanValidator.Validate(&spec.SpanDays); errs != nil {
		return aqua.WindowSpec{}, fmt.Errorf("span: %v", errs)
	}
	if errs := monthsValidator.Validate(&spec.MonthCount); errs != nil {
		return aqua.WindowSpec{}, fmt.Errorf("months: %v", errs)
	}

	return spec, nil
}

func (s *AquaServer) LogUsage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := stringField(req, "user_id")
	if err := validateUserID(&userID); err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	liters, ok := numberField(req, "liters")
	if !ok {
		return failure("validation error: liters is required")
	}
	if err := litersValidator.Validate(&liters); err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	var at time.Time
	if raw := stringField(req, "at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return failure("validation error: at can not be parsed")
		}
		at = parsed
	}

	saved, err := s.Aqua.Usage.LogDelta(ctx, userID, liters, at)
	if err != nil {
		return failure(err.Error())
	}

	return reply(true, "OK", map[string]any{
		"date":   saved.Date,
		"liters": saved.Liters,
	})
}

func (s *AquaServer) GetWindow(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := stringField(req, "user_id")
	if err := validateUserID(&userID); err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	spec, err := windowSpecFrom(req)
	if err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	u := aqua.Update{Kind: spec.Kind}
	switch spec.Kind {
	case aqua.WindowWeekly:
		u.Buckets = s.Aqua.Usage.Window(ctx, userID, time.Time{}, spec.SpanDays, spec.Direction)
	case aqua.WindowMonthly:
		u.Buckets = s.Aqua.Usage.Months(ctx, userID, time.Time{}, spec.MonthCount)
	case aqua.WindowYearly:
		u.Buckets = s.Aqua.Usage.Years(ctx, userID)
	case aqua.WindowSummary:
		summary := s.Aqua.Usage.Summary(ctx, userID)
		u.Summary = &summary
	case aqua.WindowToday:
		u.TodayLiters = s.Aqua.Usage.TodayUsage(ctx, userID)
	}

	return reply(true, "OK", updateFields(u))
}

func (s *AquaServer) GetSummary(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := stringField(req, "user_id")
	if err := validateUserID(&userID); err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	return reply(true, "OK", summaryFields(s.Aqua.Usage.Summary(ctx, userID)))
}

func (s *AquaServer) GetAlerts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := stringField(req, "user_id")
	if err := validateUserID(&userID); err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	alerts, err := s.Aqua.Alert.ListAlerts(ctx, userID)
	if err != nil {
		return failure(err.Error())
	}
	if alerts == nil {
		alerts = []models.AlertHistory{}
	}

	return reply(true, "OK", map[string]any{"alerts": alerts})
}

// PostSensor evaluates one snapshot. Sensor fields sit next to user_id in
// the request and follow the same loose typing as the MQTT payloads.
func (s *AquaServer) PostSensor(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := stringField(req, "user_id")
	if err := validateUserID(&userID); err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	snapshot := models.ParseSensorSnapshot(req.AsMap())
	evaluation, fired, err := s.Aqua.Alert.CheckSnapshot(ctx, userID, snapshot)
	fields := map[string]any{
		"safe":         evaluation.Safe,
		"water_status": evaluation.Status(),
		"fired":        fired,
	}
	if err != nil {
		return reply(false, err.Error(), fields)
	}

	return reply(true, "OK", fields)
}

func (s *AquaServer) PostLimiter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID := stringField(req, "user_id")
	if err := validateUserID(&userID); err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	userRate, ok := numberField(req, "rate")
	if !ok {
		return failure("validation error: rate is required")
	}
	userBurst, ok := numberField(req, "burst")
	if !ok {
		return failure("validation error: burst is required")
	}
	burst := int(userBurst)
	if err := burstValidator.Validate(&burst); err != nil {
		return failure(fmt.Sprintf("validation error: %v", err))
	}

	if s.RateLimiterStore == nil {
		return failure("RateLimiterStore is not used. No effect.")
	}

	s.RateLimiterStore.SetLimiter(userID, rate.Limit(userRate), burst)
	return reply(true, "OK", nil)
}

// WatchWindow streams the recomputed window after every change to the
// user's usage. Each message is a full view, so a slow client only ever
// gets the newest one.
func (s *AquaServer) WatchWindow(req *structpb.Struct, stream grpc.ServerStream) error {
	userID := stringField(req, "user_id")
	if err := validateUserID(&userID); err != nil {
		return status.Errorf(codes.InvalidArgument, "validation error: %v", err)
	}
	if !s.CheckUserLimiter(userID) {
		return status.Errorf(codes.ResourceExhausted, "rate limit exceeded")
	}

	spec, err := windowSpecFrom(req)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "validation error: %v", err)
	}

	ctx := stream.Context()
	updates := make(chan aqua.Update, 1)
	push := func(u aqua.Update) {
		for {
			select {
			case updates <- u:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	}

	unsubscribe, err := s.Aqua.Usage.Subscribe(ctx, userID, spec, push)
	if err != nil {
		return status.Errorf(codes.Unavailable, "%v", err)
	}
	defer unsubscribe()

	s.Metrics.SubscriptionOpened()
	defer s.Metrics.SubscriptionClosed()

	logger := common.GetLoggerWith(common.LoggerNameGrpcServer, zap.String("user_id", userID))
	logger.Debug("Watch started", zap.String("kind", string(spec.Kind)))

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Watch ended")
			return nil
		case u := <-updates:
			msg, err := toStruct(updateFields(u))
			if err != nil {
				return status.Errorf(codes.Internal, "%v", err)
			}
			if err := stream.SendMsg(msg); err != nil {
				return err
			}
		}
	}
}
