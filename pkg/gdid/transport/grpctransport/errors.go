package grpctransport

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus 把分配错误映射为 gRPC 状态码
//
//	校验错误     -> InvalidArgument
//	era 耗尽     -> FailedPrecondition
//	其它         -> Unavailable（客户端换下一个节点）
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case gdid.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, gdid.ErrEraExhausted):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

// fromStatus 把 gRPC 错误还原为可分类的错误
func fromStatus(host string, err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return errors.Mark(errors.Wrapf(err, "authority %s", host), gdid.ErrAuthorityUnavailable)
	}

	wrapped := errors.Newf("authority %s: %s: %s", host, st.Code(), st.Message())
	switch st.Code() {
	case codes.InvalidArgument:
		return errors.Mark(wrapped, gdid.ErrValidation)
	case codes.FailedPrecondition:
		return errors.Mark(wrapped, gdid.ErrEraExhausted)
	default:
		return errors.Mark(wrapped, gdid.ErrAuthorityUnavailable)
	}
}
