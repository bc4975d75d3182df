package services

import "fmt"

const DefaultNamespace = "webkech"

type keys struct {
	accounts    string
	credentials string
	session     string
}

func newKeys(namespace string) keys {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return keys{
		accounts:    fmt.Sprintf("%s:accounts", namespace),
		credentials: fmt.Sprintf("%s:credentials", namespace),
		session:     fmt.Sprintf("%s:session", namespace),
	}
}
