// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package api

import (
	"context"

	"codeberg.org/oliverandrich/go-admin-dashboard/internal/models"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/rpc"
	"codeberg.org/oliverandrich/go-admin-dashboard/internal/services/auth"
)

const defaultPageSize = 20

type listUsersInput struct {
	Limit  int `json:"limit" validate:"gte=0,lte=100"`
	Offset int `json:"offset" validate:"gte=0"`
}

// UserPage is a page of users.
type UserPage struct {
	Users []models.User `json:"users"`
	Total int64         `json:"total"`
}

type userIDInput struct {
	ID int64 `json:"id" validate:"gt=0"`
}

type createUserInput struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Email    string      `json:"email" validate:"required,email"`
	Password string      `json:"password" validate:"required,min=8,max=72"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=admin user"`
}

type updateRoleInput struct {
	Role models.Role `json:"role" validate:"required,oneof=admin user"`
	ID   int64       `json:"id" validate:"gt=0"`
}

func (a *API) registerUser(r *rpc.Router) {
	r.Query("user.count", rpc.AdminOnly, a.userCount)
	r.Query("user.list", rpc.AdminOnly, a.userList)
	r.Query("user.byId", rpc.AdminOnly, a.userByID)
	r.Mutation("user.create", rpc.AdminOnly, a.userCreate)
	r.Mutation("user.updateRole", rpc.AdminOnly, a.userUpdateRole)
	r.Mutation("user.delete", rpc.AdminOnly, a.userDelete)
}

func (a *API) userCount(ctx context.Context, _ *rpc.Call) (any, error) {
	return a.repo.CountUsers(ctx)
}

func (a *API) userList(ctx context.Context, call *rpc.Call) (any, error) {
	var in listUsersInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}
	if in.Limit == 0 {
		in.Limit = defaultPageSize
	}

	users, err := a.repo.ListUsers(ctx, in.Limit, in.Offset)
	if err != nil {
		return nil, err
	}
	total, err := a.repo.CountUsers(ctx)
	if err != nil {
		return nil, err
	}

	return UserPage{Users: users, Total: total}, nil
}

func (a *API) userByID(ctx context.Context, call *rpc.Call) (any, error) {
	var in userIDInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}

	user, err := a.repo.GetUserByID(ctx, in.ID)
	if err != nil {
		return nil, serviceError(err)
	}
	return user, nil
}

func (a *API) userCreate(ctx context.Context, call *rpc.Call) (any, error) {
	var in createUserInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}

	user, err := a.auth.Register(ctx, auth.RegisterParams{
		Name:     in.Name,
		Email:    in.Email,
		Password: in.Password,
		Role:     in.Role,
	})
	if err != nil {
		return nil, serviceError(err)
	}
	return user, nil
}

func (a *API) userUpdateRole(ctx context.Context, call *rpc.Call) (any, error) {
	var in updateRoleInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}

	user, err := a.auth.SetRole(ctx, call.User.ID, in.ID, in.Role)
	if err != nil {
		return nil, serviceError(err)
	}
	return user, nil
}

func (a *API) userDelete(ctx context.Context, call *rpc.Call) (any, error) {
	var in userIDInput
	if err := call.Bind(&in); err != nil {
		return nil, err
	}

	if err := a.auth.DeleteUser(ctx, call.User.ID, in.ID); err != nil {
		return nil, serviceError(err)
	}
	return Result{Success: true}, nil
}
