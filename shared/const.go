package shared

const (
	UserID = "user_id"

	LivesActionConsume = "consume"

	RoleUser  = "user"
	RoleAdmin = "admin"
)
