// Package sim walks a validated program from its start statement and emits
// one trace event per executed statement.
//
// The engine itself carries no conditional-evaluation logic: successor choice
// is an injected pure function, and termination is a pure decision over the
// halt signal and the step count. Given the same program and successor
// function, two runs produce byte-identical canonical traces.
package sim
