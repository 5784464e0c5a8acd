package grpc

import (
	"encoding/json"
	"maps"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"liyu1981.xyz/aquapure-service/pkg/aqua"
	"liyu1981.xyz/aquapure-service/pkg/models"
)

type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func stringField(s *structpb.Struct, key string) string {
	return strings.TrimSpace(s.GetFields()[key].GetStringValue())
}

// numberField reads a number or a numeric string. ok is false when the
// field is absent or unparseable.
func numberField(s *structpb.Struct, key string) (float64, bool) {
	v, exists := s.GetFields()[key]
	if !exists {
		return 0, false
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return kind.NumberValue, true
	case *structpb.Value_StringValue:
		f, err := strconv.ParseFloat(strings.TrimSpace(kind.StringValue), 64)
		return f, err == nil
	}
	return 0, false
}

func intField(s *structpb.Struct, key string, fallback int) int {
	f, ok := numberField(s, key)
	if !ok {
		return fallback
	}
	return int(f)
}

// toStruct converts any JSON-encodable value into a Struct by way of its
// JSON form, so json tags decide the field names.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, err
	}
	return s, nil
}

func reply(success bool, message string, fields map[string]any) (*structpb.Struct, error) {
	body := map[string]any{"status": StatusResponse{Success: success, Message: message}}
	maps.Copy(body, fields)
	return toStruct(body)
}

func failure(message string) (*structpb.Struct, error) {
	return reply(false, message, nil)
}

func summaryFields(summary models.Summary) map[string]any {
	return map[string]any{
		"total_liters":          summary.TotalLiters,
		"money_saved":           summary.MoneySaved,
		"filter_health":         summary.FilterHealth,
		"total_liters_display":  summary.FormatTotalLiters(),
		"money_saved_display":   summary.FormatMoneySaved(),
		"filter_health_display": summary.FormatFilterHealth(),
	}
}

func updateFields(u aqua.Update) map[string]any {
	fields := map[string]any{"kind": u.Kind}
	switch u.Kind {
	case aqua.WindowSummary:
		if u.Summary != nil {
			maps.Copy(fields, summaryFields(*u.Summary))
		}
	case aqua.WindowToday:
		fields["today_liters"] = u.TodayLiters
	default:
		buckets := u.Buckets
		if buckets == nil {
			buckets = []models.AggregateBucket{}
		}
		fields["buckets"] = buckets
	}
	return fields
}
