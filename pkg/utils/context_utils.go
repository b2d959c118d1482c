package utils

import (
	"context"

	"job-order-system/internal/entities"
	"job-order-system/pkg/contextkeys"
	apperrors "job-order-system/pkg/errors"
)

func WithActor(ctx context.Context, actor *entities.User) context.Context {
	ctx = context.WithValue(ctx, contextkeys.UserIDKey, actor.ID)
	return context.WithValue(ctx, contextkeys.ActorKey, actor)
}

func GetActorFromCtx(ctx context.Context) (*entities.User, error) {
	actor, ok := ctx.Value(contextkeys.ActorKey).(*entities.User)
	if !ok || actor == nil {
		return nil, apperrors.ErrUserNotFoundInContext
	}
	return actor, nil
}

func GetUserIDFromCtx(ctx context.Context) (uint64, error) {
	userID, ok := ctx.Value(contextkeys.UserIDKey).(uint64)
	if !ok {
		return 0, apperrors.ErrUserNotFoundInContext
	}
	return userID, nil
}
