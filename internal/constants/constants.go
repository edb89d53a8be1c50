package constants

const USER_AGENT = "backstop/0.1.0 (+https://github.com/festivo/backstop)"
