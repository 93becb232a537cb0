// Package invoke runs the compiler under test, and the IR executor for
// two-stage suites, as external processes.
//
// Every child is started in its own process group with a hard wall-clock
// timeout. When the deadline passes the whole group is killed with SIGKILL.
// The group is killed again once the leader has been reaped, so background
// children left by a compiler or executor never outlive their test case.
//
// Three strategies cover the supported suite shapes:
//
//   - Direct:   compiler <source>
//   - TwoStage: compiler <source> <ir>, then executor <ir> with the test's
//     input tokens on stdin; output compared as a token list
//   - Concat:   the TwoStage pipeline, output compared as one string
//
// Failing to start a process at all (missing binary, permission denied) is a
// *LaunchError, which is a harness problem rather than a test failure.
package invoke
