// Package mysql 提供用户、钱包、设置、交易与提现单的 MySQL 持久化。
// 调度管线本身不直接读写这些表，只有下游处理器经由本包访问。
package mysql
