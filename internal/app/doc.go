// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the primary lifecycle: loading the run
// configuration, planning a workflow graph per structure, and either
// printing the plan or executing it, decoupled from any specific entrypoint
// like a CLI.
package app
