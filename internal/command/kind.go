package command

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownKind = errors.New("command: unknown kind")

// Kind is the command discriminator. Its ordinal is the wire value.
type Kind int32

const (
	KindUserExit Kind = iota
	KindLock
	KindLockWithTimer
	KindLogOff
	KindLogOffWithTimer
	KindRestart
	KindRestartWithTimer
	KindShutdown
	KindShutdownWithTimer
	KindUnlock
	KindMessage
	KindClientLoginInform
	KindClientLogOffInform
	KindSendClientList
	KindNameExists
	KindIsNameExists
	KindClientChangeName
	KindFreeCommand

	kindCount
)

var kindNames = [kindCount]string{
	KindUserExit:           "user_exit",
	KindLock:               "pc_lock",
	KindLockWithTimer:      "pc_lock_with_timer",
	KindLogOff:             "pc_log_off",
	KindLogOffWithTimer:    "pc_log_off_with_timer",
	KindRestart:            "pc_restart",
	KindRestartWithTimer:   "pc_restart_with_timer",
	KindShutdown:           "pc_shutdown",
	KindShutdownWithTimer:  "pc_shutdown_with_timer",
	KindUnlock:             "pc_unlock",
	KindMessage:            "message",
	KindClientLoginInform:  "client_login_inform",
	KindClientLogOffInform: "client_log_off_inform",
	KindSendClientList:     "send_client_list",
	KindNameExists:         "name_exists",
	KindIsNameExists:       "is_name_exists",
	KindClientChangeName:   "client_change_name",
	KindFreeCommand:        "free_command",
}

func (k Kind) Valid() bool {
	return k >= 0 && k < kindCount
}

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int32(k))
	}
	return kindNames[k]
}

// ParseKind resolves a snake_case kind name. Matching ignores case and
// surrounding whitespace, and accepts '-' in place of '_'.
func ParseKind(name string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	for i, n := range kindNames {
		if n == key {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Kinds lists every defined kind in ordinal order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := range kindCount {
		out = append(out, k)
	}
	return out
}
