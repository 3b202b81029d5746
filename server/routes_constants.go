package server

const (
	RouteRegister     = "/api/v1/users/register"
	RouteLogin        = "/api/v1/users/login"
	RouteRefreshToken = "/api/v1/users/refresh-token"
	RouteLogout       = "/api/v1/users/logout"
	RouteCurrentUser  = "/api/v1/users/me"
)
