package validation

import (
	"errors"
	"net"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrInvalidName       = errors.New("invalid name")
	ErrInvalidDomain     = errors.New("invalid domain name")
	ErrInvalidIP         = errors.New("invalid IP address")
	ErrPathTraversal     = errors.New("path traversal detected")
	ErrInvalidCharacters = errors.New("invalid characters in input")
)

var (
	validNameRegex   = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._ -]*$`)
	validDomainRegex = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)*$`)
)

// ValidateName checks a user-supplied project or resource name.
func ValidateName(name string) error {
	if name == "" || len(name) > 64 {
		return ErrInvalidName
	}
	if !validNameRegex.MatchString(name) {
		return ErrInvalidCharacters
	}
	if strings.Contains(name, "..") {
		return ErrPathTraversal
	}
	return nil
}

// ValidateDomain checks a lowercase DNS name such as "myapp.sig".
func ValidateDomain(domain string) error {
	if domain == "" || len(domain) > 253 {
		return ErrInvalidDomain
	}
	if !validDomainRegex.MatchString(domain) {
		return ErrInvalidDomain
	}
	return nil
}

// ValidateIP checks an IPv4 or IPv6 literal.
func ValidateIP(ip string) error {
	if net.ParseIP(ip) == nil {
		return ErrInvalidIP
	}
	return nil
}

// SanitizePath joins name onto basePath and rejects anything that escapes
// the base directory.
func SanitizePath(basePath, name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}

	cleanPath := filepath.Clean(filepath.Join(basePath, name))

	absBase, err := filepath.Abs(basePath)
	if err != nil {
		return "", err
	}
	absPath, err := filepath.Abs(cleanPath)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(absBase, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", ErrPathTraversal
	}

	return cleanPath, nil
}
