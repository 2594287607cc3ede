// Package daemonrun wires configuration, logging, storage, the daemon, and
// the IPC server into the shoeboxd process lifecycle.
package daemonrun
