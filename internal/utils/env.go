// Package utils provides small helpers shared by the renderer and the
// command line, mostly around environment variable handling.
package utils

import (
	"fmt"
	"strings"
)

// MapToEnvSlice converts a map of environment variables to a slice of strings
// in the format "key=value". This is useful for setting environment variables
// in contexts where a slice of strings is required.
//
// Parameters:
//   - envMap: A map where the keys are environment variable names and the values
//     are the corresponding environment variable values.
//
// Returns:
//   - A slice of strings where each string is in the format "key=value".
func MapToEnvSlice(envMap map[string]string) []string {
	var envSlice []string
	for k, v := range envMap {
		envSlice = append(envSlice, fmt.Sprintf("%s=%s", k, v))
	}
	return envSlice
}

// EnvSliceToMap parses a slice of "key=value" strings into a map. This is
// the inverse of MapToEnvSlice and is used to turn repeated --env flags
// into the lookup map templates read from.
//
// Parameters:
//   - envSlice: A slice of strings where each string is in the format "key=value".
//
// Returns:
//   - A map where the keys are environment variable names and the values
//     are the corresponding environment variable values.
//   - An error if an entry is missing the "=" separator or has an empty key.
func EnvSliceToMap(envSlice []string) (map[string]string, error) {
	envMap := make(map[string]string, len(envSlice))
	for _, kv := range envSlice {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid environment variable: %s", kv)
		}
		envMap[k] = v
	}
	return envMap, nil
}
