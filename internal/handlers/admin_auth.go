package handlers

import "github.com/gin-gonic/gin"

// AdminLogin opens the same cookie session as Login but only for admin accounts.
func AdminLogin(users Accounts, session SessionConfig) gin.HandlerFunc {
	return loginHandler("POST /api/admin/login", users, session, true)
}
