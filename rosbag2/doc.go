// Package rosbag2 reads ROS 2 bags recorded with sqlite3 storage plugin.
//
// A bag is a directory with metadata.yaml and one or more sqlite3 storage files.
// Storage files may be zstd compressed either whole (file mode) or per message (message mode).
// SequentialReader walks messages of all storage files in recorded order, the same way
// rosbag2_cpp SequentialReader does, without decoding message payloads.
package rosbag2
