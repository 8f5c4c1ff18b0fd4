/*
Package workers sizes the indexer's pools.

CPU budgets come from GOMAXPROCS rather than runtime.NumCPU, since the Go
runtime derives GOMAXPROCS from the container CPU quota while NumCPU reports
the host.

# Pools

  - assembly (SCAN_WORKERS, default 3, at most 16): folder classification
    and movie assembly
  - inspection (MEDIAINFO_WORKERS, default 1, at most one per CPU up to 8):
    ffprobe runs
  - image cache: one resize per CPU, at most four

Invalid or non-positive values are logged and replaced by the default:

	env:
	- name: SCAN_WORKERS
	  value: "6"
	- name: MEDIAINFO_WORKERS
	  value: "2"
*/
package workers
