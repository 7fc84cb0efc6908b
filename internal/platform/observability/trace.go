package observability

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/loom-field/api/internal/platform/requestctx"
)

const cloudTraceHeader = "X-Cloud-Trace-Context"

var tracer = otel.Tracer("github.com/loom-field/api/internal/platform/observability")

// TraceMiddleware starts a server span for each request and stores trace
// metadata on the request context so log lines correlate with Cloud Trace.
// Incoming X-Cloud-Trace-Context headers link the span to the caller's trace.
func TraceMiddleware(projectID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if next == nil {
			next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if remote, ok := remoteSpanContext(r.Header.Get(cloudTraceHeader)); ok {
				ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
			}

			ctx, span := tracer.Start(ctx, spanNameFromRequest(r), trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()
			span.SetAttributes(requestSpanAttributes(r)...)

			spanCtx := span.SpanContext()
			info := requestctx.TraceInfo{
				TraceID:   spanCtx.TraceID().String(),
				SpanID:    spanCtx.SpanID().String(),
				Sampled:   spanCtx.IsSampled(),
				ProjectID: projectID,
			}
			r = r.WithContext(requestctx.WithTrace(ctx, info))

			w.Header().Set(cloudTraceHeader, formatCloudTraceHeader(info))

			next.ServeHTTP(w, r)
		})
	}
}

// remoteSpanContext parses the TRACE_ID/SPAN_ID[;o=1] header format. The span
// part may be hex or the decimal encoding older Google front ends send.
func remoteSpanContext(header string) (trace.SpanContext, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return trace.SpanContext{}, false
	}

	tracePart, spanPart, found := strings.Cut(header, "/")
	if !found {
		return trace.SpanContext{}, false
	}

	traceID, err := trace.TraceIDFromHex(strings.TrimSpace(tracePart))
	if err != nil {
		return trace.SpanContext{}, false
	}

	spanPart, optionPart, _ := strings.Cut(spanPart, ";")
	spanID, ok := parseSpanID(spanPart)
	if !ok {
		return trace.SpanContext{}, false
	}

	flags := trace.TraceFlags(0)
	if traceOptionSampled(optionPart) {
		flags = trace.FlagsSampled
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	}), true
}

func parseSpanID(value string) (trace.SpanID, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return trace.SpanID{}, false
	}

	if len(value) <= 16 && isHex(value) {
		padded := strings.Repeat("0", 16-len(value)) + value
		if spanID, err := trace.SpanIDFromHex(padded); err == nil {
			return spanID, true
		}
	}

	if num, err := strconv.ParseUint(value, 10, 64); err == nil {
		var spanID trace.SpanID
		binary.BigEndian.PutUint64(spanID[:], num)
		return spanID, spanID.IsValid()
	}

	return trace.SpanID{}, false
}

func traceOptionSampled(optionPart string) bool {
	for _, segment := range strings.Split(optionPart, ";") {
		if strings.TrimSpace(segment) == "o=1" {
			return true
		}
	}
	return false
}

func isHex(value string) bool {
	if value == "" || len(value)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}

func formatCloudTraceHeader(info requestctx.TraceInfo) string {
	option := "0"
	if info.Sampled {
		option = "1"
	}
	return fmt.Sprintf("%s/%s;o=%s", info.TraceID, info.SpanID, option)
}

func spanNameFromRequest(r *http.Request) string {
	path := r.URL.Path
	if path == "" {
		path = "/"
	}
	return fmt.Sprintf("%s %s", r.Method, path)
}

func requestSpanAttributes(r *http.Request) []attribute.KeyValue {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.request.method", r.Method),
		attribute.String("url.scheme", scheme),
	}
	if r.URL != nil {
		if path := r.URL.Path; path != "" {
			attrs = append(attrs, attribute.String("url.path", path))
		}
		if target := r.URL.RequestURI(); target != "" {
			attrs = append(attrs, attribute.String("url.full", target))
		}
	}
	if host := r.Host; host != "" {
		attrs = append(attrs, attribute.String("server.address", host))
	}
	if ua := r.UserAgent(); ua != "" {
		attrs = append(attrs, attribute.String("user_agent.original", ua))
	}
	return attrs
}
