package utils

const DefaultBufferSize = 1024 * 1024 * 8 // 8MB buffer
const TempDirName = ".coursekeep-temp"
const ToolUserAgent = "coursekeep/1.0"
