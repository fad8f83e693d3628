/*
Package transfer implements the file/transfer manager (spec §4.5): the
remote-side helpers the collection state machine uses to watch, fetch
and verify artifacts on a host.

It sits atop pkg/platform (to synthesize remote commands), a small
Executor interface satisfied by the session manager's Execute method (to
run them), and a FileFacade interface satisfied by the rtr façade's
ListFiles/FetchFile. It never builds RTR HTTP requests itself.

# Stability sampling

Stabilizer implements the two-identical-consecutive-samples rule
(spec §4.3): Stabilizer.Wait takes a stat function, samples it on its
own interval, and reports stable once size and mtime match the previous
sample with size > 0, or an error once the timeout elapses with no
stable reading.
*/
package transfer
