package dbus

// Standard D-Bus interface and method names
const (
	DBUS_SERVICE   = "org.freedesktop.DBus"
	DBUS_INTERFACE = "org.freedesktop.DBus"

	BUS_LIST_NAMES             = DBUS_INTERFACE + ".ListNames"
	BUS_LIST_ACTIVATABLE_NAMES = DBUS_INTERFACE + ".ListActivatableNames"
	DBUS_PROP_IFACE            = DBUS_INTERFACE + ".Properties"

	PROP_GET = DBUS_PROP_IFACE + ".Get"
)

// Well-known error names sent by the bus driver and by services.
const (
	ERR_PREFIX = DBUS_INTERFACE + ".Error."

	ERR_FAILED                             = ERR_PREFIX + "Failed"
	ERR_SERVICE_UNKNOWN                    = ERR_PREFIX + "ServiceUnknown"
	ERR_NAME_HAS_NO_OWNER                  = ERR_PREFIX + "NameHasNoOwner"
	ERR_NO_REPLY                           = ERR_PREFIX + "NoReply"
	ERR_TIMEOUT                            = ERR_PREFIX + "Timeout"
	ERR_TIMED_OUT                          = ERR_PREFIX + "TimedOut"
	ERR_NO_SERVER                          = ERR_PREFIX + "NoServer"
	ERR_NO_NETWORK                         = ERR_PREFIX + "NoNetwork"
	ERR_DISCONNECTED                       = ERR_PREFIX + "Disconnected"
	ERR_ACCESS_DENIED                      = ERR_PREFIX + "AccessDenied"
	ERR_AUTH_FAILED                        = ERR_PREFIX + "AuthFailed"
	ERR_INTERACTIVE_AUTHORIZATION_REQUIRED = ERR_PREFIX + "InteractiveAuthorizationRequired"
	ERR_INVALID_ARGS                       = ERR_PREFIX + "InvalidArgs"
	ERR_LIMITS_EXCEEDED                    = ERR_PREFIX + "LimitsExceeded"
	ERR_UNKNOWN_METHOD                     = ERR_PREFIX + "UnknownMethod"
	ERR_UNKNOWN_OBJECT                     = ERR_PREFIX + "UnknownObject"
	ERR_UNKNOWN_INTERFACE                  = ERR_PREFIX + "UnknownInterface"
	ERR_UNKNOWN_PROPERTY                   = ERR_PREFIX + "UnknownProperty"

	POLKIT_ERR_NOT_AUTHORIZED = "org.freedesktop.PolicyKit1.Error.NotAuthorized"
)
