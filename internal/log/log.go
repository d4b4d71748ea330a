package log

import (
	"os"

	"github.com/sirupsen/logrus"
)

const (
	// TeamField is the log field name of a team ID
	TeamField = "teamId"
	// UserField is the log field name of a user ID
	UserField = "userId"
	// MembershipField is the log field name of a membership ID
	MembershipField = "membershipId"
)

// Log is the application wide logger
var Log = logrus.WithFields(logrus.Fields{})

func init() {
	levelFromEnv()
}

func levelFromEnv() {
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		return
	}

	if newLevel, err := logrus.ParseLevel(level); err == nil {
		Log.Logger.SetLevel(newLevel)
	}
}

// Init configures the application wide logger. An unparseable level leaves
// the current level in place.
func Init(json bool, level string) {
	if json {
		Log.Logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.Logger.SetFormatter(&logrus.TextFormatter{})
	}

	if newLevel, err := logrus.ParseLevel(level); err == nil {
		Log.Logger.SetLevel(newLevel)
	}
}

// Team returns the fields identifying a team.
func Team(id string) logrus.Fields {
	return logrus.Fields{TeamField: id}
}

// Member returns the fields identifying a user's membership of a team.
func Member(userID, teamID string) logrus.Fields {
	return logrus.Fields{
		UserField: userID,
		TeamField: teamID,
	}
}
