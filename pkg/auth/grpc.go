package auth

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// grpcAuthorizationKey is the lowercase metadata key carrying the bearer
// token on gRPC calls.
const grpcAuthorizationKey = "authorization"

// UnaryServerInterceptor returns a gRPC unary server interceptor with the
// same semantics as the HTTP [Middleware]: requests without a bearer
// credential proceed anonymously, requests with one must pass verification
// or receive a uniform Unauthenticated status with no internal detail.
//
// On success the [Identity] and raw token are attached to the handler
// context.
func UnaryServerInterceptor(authenticator *Authenticator) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		ctx, err := authenticateGRPC(ctx, authenticator)
		if err != nil {
			return nil, err
		}
		return handler(ctx, req)
	}
}

// StreamServerInterceptor returns the stream-side counterpart of
// [UnaryServerInterceptor]. The stream is wrapped so handlers see the
// enriched context.
func StreamServerInterceptor(authenticator *Authenticator) grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		ctx, err := authenticateGRPC(ss.Context(), authenticator)
		if err != nil {
			return err
		}
		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: ctx})
	}
}

// UnaryClientInterceptor returns a gRPC unary client interceptor that
// re-presents the inbound request's bearer token on outgoing calls, the
// gRPC counterpart of [TokenRoundTripper]. Calls whose context carries no
// token proceed without credentials.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply any,
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		return invoker(propagateTokenToGRPC(ctx), method, req, reply, cc, opts...)
	}
}

// StreamClientInterceptor returns the stream-side counterpart of
// [UnaryClientInterceptor].
func StreamClientInterceptor() grpc.StreamClientInterceptor {
	return func(
		ctx context.Context,
		desc *grpc.StreamDesc,
		cc *grpc.ClientConn,
		method string,
		streamer grpc.Streamer,
		opts ...grpc.CallOption,
	) (grpc.ClientStream, error) {
		return streamer(propagateTokenToGRPC(ctx), desc, cc, method, opts...)
	}
}

// authenticateGRPC extracts the bearer token from incoming metadata and
// verifies it. Missing metadata or a missing/malformed authorization value
// yields an anonymous context, mirroring the HTTP middleware.
func authenticateGRPC(ctx context.Context, authenticator *Authenticator) (context.Context, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ctx, nil
	}

	values := md.Get(grpcAuthorizationKey)
	if len(values) == 0 {
		return ctx, nil
	}
	raw := ExtractBearerToken(values[0])
	if raw == "" {
		return ctx, nil
	}

	identity, err := authenticator.Authenticate(ctx, raw)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, "not authenticated")
	}

	ctx = ContextWithIdentity(ctx, identity)
	ctx = ContextWithToken(ctx, raw)
	return ctx, nil
}

// propagateTokenToGRPC copies the context's bearer token into outgoing
// metadata, leaving any caller-set authorization value alone.
func propagateTokenToGRPC(ctx context.Context) context.Context {
	raw, ok := TokenFromContext(ctx)
	if !ok || raw == "" {
		return ctx
	}
	if md, ok := metadata.FromOutgoingContext(ctx); ok && len(md.Get(grpcAuthorizationKey)) > 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, grpcAuthorizationKey, bearerPrefix+raw)
}

// wrappedServerStream wraps a grpc.ServerStream to override its Context
// method, since the original stream context lacks the identity added by
// the interceptor.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

// Context returns the enriched context containing identity and token.
func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
