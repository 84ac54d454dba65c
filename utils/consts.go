package utils

import "time"

// environment variables
const APP_ENV = "APP_ENV"
const PORT = "PORT"
const URI_KEY = "URI_KEY"
const ACCESS_TOKEN_SECRET = "ACCESS_TOKEN_SECRET"
const ACCESS_TOKEN_SECRET_OLD = "ACCESS_TOKEN_SECRET_OLD"
const ACCESS_TOKEN_EXPIRY = "ACCESS_TOKEN_EXPIRY"
const REFRESH_TOKEN_SECRET = "REFRESH_TOKEN_SECRET"
const REFRESH_TOKEN_SECRET_OLD = "REFRESH_TOKEN_SECRET_OLD"
const REFRESH_TOKEN_EXPIRY = "REFRESH_TOKEN_EXPIRY"
const SECRET_KEY = "SECRET_KEY"
const ENCRYPTION_KEY = "ENCRYPTION_KEY"
const HMAC_SECRET = "HMAC_SECRET"
const REDIS_ADDR = "REDIS_ADDR"
const REDIS_PASSWORD = "REDIS_PASSWORD"
const DISCOVERY_TIMEZONE = "DISCOVERY_TIMEZONE"
const LOG_FILE = "LOG_FILE"
const AUTH_THROTTLE_RPS = "AUTH_THROTTLE_RPS"

// environments
const ENV_PRODUCTION = "production"
const ENV_DEVELOPMENT = "development"

// token types
const ACCESS_TYPE = "access"
const REFRESH_TYPE = "refresh"

// cookies
const ACCESS_TOKEN_COOKIE = "accessToken"
const REFRESH_TOKEN_COOKIE = "refreshToken"
const SESSION_DATA_COOKIE = "sessionData"

// error messages
const MYSQL_ERR_DUPLICATE_KEY = 1062
const ALL_FIELDS_REQUIRED = "All fields are required"
const USER_ALREADY_EXISTS = "User already exists"
const EMAIL_TAKEN = "Email is already in use"
const GENERIC_SIGNUP_ERROR = "Something went wrong while registering user"
const LOGIN_FIELDS_REQUIRED = "Username or Email and Password are required"
const USER_NOT_FOUND = "User not found"
const INVALID_PASSWORD = "Invalid password"
const GENERIC_TOKEN_ERROR = "Error generating tokens"
const UNAUTHORIZED_REQUEST = "Unauthorized request"
const INVALID_ACCESS_TOKEN = "Invalid access token"
const REFRESH_TOKEN_REQUIRED = "Refresh token is required"
const INVALID_REFRESH_TOKEN = "Invalid refresh token"
const REFRESH_TOKEN_SUPERSEDED = "Refresh token is expired or used"
const PASSWORD_FIELDS_REQUIRED = "Current password and new password are required"
const CURRENT_PASSWORD_INCORRECT = "Current password is incorrect"
const ACCOUNT_FIELDS_REQUIRED = "Full name and email are required"
const PASSWORD_TOO_LONG = "Password must be at most 72 bytes"
const USERNAME_HAS_AT = "Username cannot contain @"
const EMAIL_INVALID = "Email must be a valid address"
const SESSION_EXPIRED = "Session expired. Please login again."
const INVALID_SESSION = "Invalid session data. Please login again."
const TOO_MANY_REQUESTS = "Too many requests."
const INTERNAL_SERVER_ERROR = "Internal server error"
const JWT_TOKEN_PARSING_ERROR = "Token could not be parsed"
const JWT_WRONG_TOKEN_TYPE = "Token has the wrong type"

// bcrypt ignores everything past this many bytes
const MAX_PASSWORD_BYTES = 72

// lifetimes
const ACCESS_TOKEN_DURATION = 24 * time.Hour
const REFRESH_TOKEN_DURATION = 10 * 24 * time.Hour
const SESSION_MAX_AGE = 24 * time.Hour
const STORE_TIMEOUT = 3 * time.Second

// sensitive route throttling
const SENSITIVE_MAX_REQUESTS = 10
const SENSITIVE_WINDOW = 15 * time.Minute
const RATE_LIMIT_KEY_PREFIX = "rate_limit_"
