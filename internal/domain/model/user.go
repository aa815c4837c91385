package model

// JWTのroleクレーム。ユーザー自体はこのサービスでは持たない。
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)
