package config

import "fmt"

// Warnings lists settings that work but should not be used in production
func (c *Config) Warnings() []string {
	var warnings []string

	if c.JWTSecret == exampleJWTSecret {
		warnings = append(warnings, "JWT_SECRET appears to be using the example value - generate a secure key with: openssl rand -hex 32")
	} else if len(c.JWTSecret) < minJWTSecretLen {
		warnings = append(warnings, fmt.Sprintf("JWT_SECRET is shorter than %d characters", minJWTSecretLen))
	}

	if c.DBDriver == DriverPostgres && c.DBPassword == exampleDBPassword {
		warnings = append(warnings, "DB_PASSWORD appears to be using the example value - please use a secure password")
	}

	if c.DBDriver == DriverMemory && c.Environment == EnvProduction {
		warnings = append(warnings, "DB_DRIVER=memory loses all items on restart")
	}

	if !c.OAuthEnabled() {
		warnings = append(warnings, "DISCORD_CLIENT_ID is not set - sign-in is disabled")
	} else if len(c.ModeratorDiscordIDs) == 0 {
		warnings = append(warnings, "MODERATOR_DISCORD_IDS is empty - nobody can publish items")
	}

	return warnings
}
