// Package disposition applies operator decisions to analyzed files. Phase 1
// partitions the decisions and stamps capture dates; phase 2 wipes the
// export area, then deletes or relocates every analyzed file. Per-file
// failures accumulate in the result rather than aborting the batch, and
// each run leaves a timestamped plain-text report behind.
package disposition
