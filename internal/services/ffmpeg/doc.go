// Package ffmpeg encodes synthesized WAV files to MP3 by running ffmpeg as a
// subprocess with a fixed encode profile.
package ffmpeg
