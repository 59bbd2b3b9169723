// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package api

import (
	"context"
	"errors"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/rpc"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
)

type forgotPasswordInput struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyResetTokenInput struct {
	Token string `json:"token" validate:"required"`
}

type resetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=Password"`
}

type changePasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"omitempty,eqfield=NewPassword"`
}

func (a *API) registerAuth(r *rpc.Router) {
	r.Query("auth.me", rpc.Protected, a.authMe)
	r.Mutation("auth.forgotPassword", rpc.Public, a.authForgotPassword)
	r.Query("auth.verifyResetToken", rpc.Public, a.authVerifyResetToken)
	r.Mutation("auth.resetPassword", rpc.Public, a.authResetPassword)
	r.Mutation("auth.changePassword", rpc.Protected, a.authChangePassword)
}

func (a *API) authMe(ctx context.Context, call *rpc.Call) (any, error) {
	admin, err := a.auth.GetCurrentAdmin(ctx, call.User.ID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, rpc.NewError(rpc.CodeNotFound, "Admin not found")
		}
		return nil, err
	}
	return admin, nil
}

func (a *API) authForgotPassword(ctx context.Context, call *rpc.Call) (any, error) {
	var in forgotPasswordInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}

	res, err := a.auth.RequestPasswordReset(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	return Result{Success: true, Message: res.Message, Token: res.Token}, nil
}

func (a *API) authVerifyResetToken(ctx context.Context, call *rpc.Call) (any, error) {
	var in verifyResetTokenInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}

	if err := a.auth.VerifyResetToken(ctx, in.Token); err != nil {
		return nil, serviceError(err)
	}
	return map[string]bool{"valid": true}, nil
}

func (a *API) authResetPassword(ctx context.Context, call *rpc.Call) (any, error) {
	var in resetPasswordInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}

	if err := a.auth.ResetPassword(ctx, in.Token, in.Password); err != nil {
		return nil, serviceError(err)
	}
	return Result{Success: true, Message: auth.ResetCompletedMessage}, nil
}

func (a *API) authChangePassword(ctx context.Context, call *rpc.Call) (any, error) {
	var in changePasswordInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}

	if err := a.auth.ChangePassword(ctx, call.User.ID, in.CurrentPassword, in.NewPassword); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return nil, rpc.NewError(rpc.CodeNotFound, "Admin not found")
		}
		return nil, serviceError(err)
	}
	return Result{Success: true, Message: auth.PasswordChangedMessage}, nil
}
