// Package callertoken issues and verifies the tokens a host hands to the
// plugins it loads. A token binds a caller identity to the host that issued
// it, so the identity threaded into the Engine never comes from the plugin's
// own request payload.
package callertoken
