//go:build !unix

package bkp9151

func isBusyErrno(err error) bool {
	return false
}
